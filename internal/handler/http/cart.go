package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naochaLuwang/daciana-cart/internal/cart"
	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/internal/event"
	"github.com/naochaLuwang/daciana-cart/internal/remote"
	apperrors "github.com/naochaLuwang/daciana-cart/pkg/errors"
	"github.com/naochaLuwang/daciana-cart/pkg/httputil"
	"github.com/naochaLuwang/daciana-cart/pkg/validator"
)

// CartHandler handles HTTP requests for the session cart and shipping
// endpoints.
type CartHandler struct {
	store    *cart.Store
	shipping remote.ShippingMethodStore
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler. producer may be nil when
// event publishing is not wired.
func NewCartHandler(store *cart.Store, shipping remote.ShippingMethodStore, producer *event.Producer, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		store:    store,
		shipping: shipping,
		producer: producer,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID    string `json:"product_id" validate:"required"`
	VariantID    string `json:"variant_id" validate:"required"`
	Name         string `json:"name" validate:"required,min=1,max=500"`
	VariantLabel string `json:"variant_label"`
	Price        int64  `json:"price" validate:"gte=0"`
	Quantity     int    `json:"quantity" validate:"required,gte=1"`
	Stock        int    `json:"stock" validate:"required,gte=1"`
	ImageURL     string `json:"image_url"`
}

// UpdateQuantityRequest is the JSON request body for updating a line's
// quantity. Use DELETE to remove the line entirely.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// SelectShippingRequest is the JSON request body for choosing a shipping
// method. An empty method ID clears the selection.
type SelectShippingRequest struct {
	MethodID string `json:"method_id"`
}

// --- Response DTOs ---

// CartResponse is the JSON shape of the session cart.
type CartResponse struct {
	Items            []CartLineResponse `json:"items"`
	TotalItems       int                `json:"total_items"`
	TotalAmount      int64              `json:"total_amount"`
	ShippingMethodID string             `json:"shipping_method_id,omitempty"`
	ShippingPrice    int64              `json:"shipping_price"`
}

// CartLineResponse is one line of the cart response.
type CartLineResponse struct {
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id"`
	Name         string `json:"name"`
	VariantLabel string `json:"variant_label,omitempty"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	Stock        int    `json:"stock"`
	ImageURL     string `json:"image_url,omitempty"`
	Subtotal     int64  `json:"subtotal"`
}

// ShippingMethodResponse is one shipping method in the listing.
type ShippingMethodResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	DeliveryEstimate string `json:"delivery_estimate,omitempty"`
}

func toCartResponse(c domain.Cart) CartResponse {
	items := make([]CartLineResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartLineResponse{
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Name:         item.Name,
			VariantLabel: item.VariantLabel,
			Price:        item.UnitPrice,
			Quantity:     item.Quantity,
			Stock:        item.StockCeiling,
			ImageURL:     item.ImageURL,
			Subtotal:     item.UnitPrice * int64(item.Quantity),
		}
	}
	return CartResponse{
		Items:            items,
		TotalItems:       c.TotalItems(),
		TotalAmount:      c.TotalAmount(),
		ShippingMethodID: c.ShippingMethodID,
		ShippingPrice:    c.ShippingPrice,
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(h.store.Snapshot())})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	h.store.AddItem(domain.LineItem{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		Name:         req.Name,
		VariantLabel: req.VariantLabel,
		UnitPrice:    req.Price,
		ImageURL:     req.ImageURL,
		Quantity:     req.Quantity,
		StockCeiling: req.Stock,
	})

	h.publishUpdated(r)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(h.store.Snapshot())})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{variantId}. Updating a
// variant that is not in the cart is a no-op, not an error.
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantId")
	if variantID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("variantId is required"), h.logger)
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	h.store.UpdateQuantity(variantID, req.Quantity)

	h.publishUpdated(r)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(h.store.Snapshot())})
}

// RemoveItem handles DELETE /api/v1/cart/items/{variantId}. Removing an
// absent variant is a no-op, not an error.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantId")
	if variantID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("variantId is required"), h.logger)
		return
	}

	h.store.RemoveItem(variantID)

	h.publishUpdated(r)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(h.store.Snapshot())})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()

	if h.producer != nil {
		userID, _ := identityFromContext(r.Context())
		if err := h.producer.PublishCartCleared(r.Context(), userID); err != nil {
			h.logger.WarnContext(r.Context(), "failed to publish cart.cleared event",
				slog.String("error", err.Error()))
		}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

// SelectShipping handles PUT /api/v1/cart/shipping. The price is derived from
// the chosen method server-side; clients only name the method.
func (h *CartHandler) SelectShipping(w http.ResponseWriter, r *http.Request) {
	var req SelectShippingRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if req.MethodID == "" {
		h.store.ClearShipping()
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(h.store.Snapshot())})
		return
	}

	methods, err := h.shipping.ListShippingMethods(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	for _, m := range methods {
		if m.ID == req.MethodID {
			h.store.SetShipping(m.ID, m.Price)
			httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartResponse(h.store.Snapshot())})
			return
		}
	}

	httputil.WriteError(w, r, apperrors.NotFound("shipping method", req.MethodID), h.logger)
}

// ListShippingMethods handles GET /api/v1/shipping-methods
func (h *CartHandler) ListShippingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.shipping.ListShippingMethods(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]ShippingMethodResponse, len(methods))
	for i, m := range methods {
		out[i] = ShippingMethodResponse{
			ID:               m.ID,
			Name:             m.Name,
			Price:            m.Price,
			DeliveryEstimate: m.DeliveryEstimate,
		}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: out})
}

// publishUpdated emits a cart.updated event for the current snapshot, best
// effort.
func (h *CartHandler) publishUpdated(r *http.Request) {
	if h.producer == nil {
		return
	}
	userID, _ := identityFromContext(r.Context())
	if err := h.producer.PublishCartUpdated(r.Context(), userID, h.store.Snapshot()); err != nil {
		h.logger.WarnContext(r.Context(), "failed to publish cart.updated event",
			slog.String("error", err.Error()))
	}
}
