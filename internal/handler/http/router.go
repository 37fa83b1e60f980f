package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naochaLuwang/daciana-cart/internal/cart"
	"github.com/naochaLuwang/daciana-cart/internal/event"
	"github.com/naochaLuwang/daciana-cart/internal/identity"
	"github.com/naochaLuwang/daciana-cart/internal/remote"
	"github.com/naochaLuwang/daciana-cart/pkg/health"
	"github.com/naochaLuwang/daciana-cart/pkg/middleware"
)

// NewRouter creates a chi router with all cart session routes registered.
func NewRouter(
	store *cart.Store,
	shipping remote.ShippingMethodStore,
	producer *event.Producer,
	watcher *identity.Watcher,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart-session"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(store, shipping, producer, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(IdentityFromHeader(watcher))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{variantId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{variantId}", cartHandler.RemoveItem)

			r.Put("/shipping", cartHandler.SelectShipping)
		})

		r.Get("/shipping-methods", cartHandler.ListShippingMethods)
	})

	return r
}
