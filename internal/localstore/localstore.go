package localstore

import (
	"context"

	apperrors "github.com/naochaLuwang/daciana-cart/pkg/errors"
)

// ErrNotFound is returned by Get when a key has no stored value.
var ErrNotFound = apperrors.ErrNotFound

// Storage is a durable key-value store scoped to the device running the cart
// session. It is best-effort persistence only; the remote cart mirror is
// authoritative once the shopper is logged in.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the value stored under key. Removing an absent key is
	// not an error.
	Remove(ctx context.Context, key string) error
}
