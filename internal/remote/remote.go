package remote

import (
	"context"

	"github.com/naochaLuwang/daciana-cart/internal/domain"
)

// ProductRef is the product joined to a remote cart row at read time.
type ProductRef struct {
	ID       string
	Name     string
	ImageURL string
}

// VariantRef is the variant joined to a remote cart row at read time. Stock
// is the variant's current stock, used as the line's clamping ceiling after
// hydration.
type VariantRef struct {
	ID    string
	Label string
	Stock int
}

// CartItemRow is one row of the server-side cart mirror. Product and Variant
// come from joins and may be nil when the referenced catalog row has been
// deleted; the synchronizer decides how to handle such rows.
type CartItemRow struct {
	Quantity   int
	PriceAtAdd int64
	Product    *ProductRef
	Variant    *VariantRef
}

// CartStore is the server-side per-user cart mirror. The synchronizer is the
// only writer; it fully replaces rows rather than diffing.
type CartStore interface {
	// FindCartItems returns the rows of the user's cart and whether a cart
	// record exists at all. A missing record is not an error and must not
	// create one.
	FindCartItems(ctx context.Context, userID string) (items []CartItemRow, exists bool, err error)

	// GetOrCreateCart resolves the user's cart record, creating it if
	// needed. Idempotent.
	GetOrCreateCart(ctx context.Context, userID string) (cartID string, err error)

	// ReplaceCartItems deletes all rows of the cart and inserts one row per
	// given line item.
	ReplaceCartItems(ctx context.Context, cartID string, items []domain.LineItem) error
}

// ShippingMethodStore lists the shipping methods configured for the store's
// zones.
type ShippingMethodStore interface {
	ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)
}
