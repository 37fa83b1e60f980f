package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/internal/localstore"
)

const (
	// StateKey is the local storage key holding the serialized cart state.
	StateKey = "cart/state.v1"

	// legacyStateKey is the pre-versioning key. Clear purges it as well so no
	// stale copy survives a logout on the same device.
	legacyStateKey = "cart/state"
)

// Store is the single source of truth for the shopper's cart. It knows
// nothing about the network or authentication: mutations clamp and merge
// locally, persist to the device's storage, and notify observers. The store's
// API never returns errors; persistence failures are logged and swallowed.
type Store struct {
	mu        sync.Mutex
	state     domain.Cart
	storage   localstore.Storage
	logger    *slog.Logger
	observers []func()
}

// NewStore creates a cart store, restoring any previously persisted state.
// Corrupt or missing persisted state degrades to an empty cart.
func NewStore(storage localstore.Storage, logger *slog.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logger,
		state:   domain.Cart{Items: []domain.LineItem{}},
	}
	s.restore()
	return s
}

// Subscribe registers an observer invoked after every change to the item
// list (add, remove, quantity update, hydration, clear). Observers run
// outside the store's lock and must not assume any particular goroutine.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// AddItem adds a line item to the cart. If the variant is already present the
// quantities are merged and clamped to the existing item's stock ceiling; the
// incoming ceiling is assumed identical since it is the same variant.
// Otherwise the item is appended with its quantity clamped to its own
// ceiling. This operation never rejects.
func (s *Store) AddItem(item domain.LineItem) {
	s.mu.Lock()
	if i := s.state.FindItemIndex(item.VariantID); i >= 0 {
		existing := &s.state.Items[i]
		existing.Quantity = existing.ClampQuantity(existing.Quantity + item.Quantity)
	} else {
		item.Quantity = item.ClampQuantity(item.Quantity)
		s.state.Items = append(s.state.Items, item)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// RemoveItem removes the line item with the given variant ID. Removing an
// absent variant is a no-op, not an error.
func (s *Store) RemoveItem(variantID string) {
	s.mu.Lock()
	i := s.state.FindItemIndex(variantID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// UpdateQuantity sets the quantity for the given variant, clamped to
// [1, stock ceiling]. A quantity below 1 cannot be reached through this call;
// use RemoveItem to drop the line entirely. Unknown variants are a no-op.
func (s *Store) UpdateQuantity(variantID string, quantity int) {
	s.mu.Lock()
	i := s.state.FindItemIndex(variantID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	item := &s.state.Items[i]
	item.Quantity = item.ClampQuantity(quantity)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// SetItems replaces the whole item list, bypassing merge and clamp logic.
// Used by the synchronizer to hydrate from the server-side mirror, which is
// trusted to carry current stock.
func (s *Store) SetItems(items []domain.LineItem) {
	s.mu.Lock()
	s.state.Items = make([]domain.LineItem, len(items))
	copy(s.state.Items, items)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// Clear resets the cart to empty, drops the shipping selection, and purges
// the persisted copy (current and legacy keys) so no stale state survives a
// logout on this device.
func (s *Store) Clear() {
	s.mu.Lock()
	s.state = domain.Cart{Items: []domain.LineItem{}}

	ctx := context.Background()
	if err := s.storage.Remove(ctx, StateKey); err != nil {
		s.logger.Warn("failed to purge persisted cart", slog.String("error", err.Error()))
	}
	if err := s.storage.Remove(ctx, legacyStateKey); err != nil {
		s.logger.Warn("failed to purge legacy persisted cart", slog.String("error", err.Error()))
	}
	s.mu.Unlock()

	s.notify()
}

// SetShipping selects a shipping method and its derived price. An empty
// method ID means "no method chosen" and is conventionally paired with a
// zero price. Shipping changes do not notify item-list observers.
func (s *Store) SetShipping(methodID string, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShippingMethodID = methodID
	s.state.ShippingPrice = price
	s.persistLocked()
}

// ClearShipping drops the shipping selection.
func (s *Store) ClearShipping() {
	s.SetShipping("", 0)
}

// TotalItems returns the sum of quantities across the cart.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalItems()
}

// TotalPrice returns the cart total in cents, shipping included.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalAmount()
}

// Snapshot returns a copy of the current cart state. Callers never see the
// store's internal slice.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	snap.Items = make([]domain.LineItem, len(s.state.Items))
	copy(snap.Items, s.state.Items)
	return snap
}

// persistLocked serializes the state to local storage. Best effort: failures
// are logged, never surfaced to callers. Caller must hold s.mu.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("failed to marshal cart state", slog.String("error", err.Error()))
		return
	}
	if err := s.storage.Set(context.Background(), StateKey, data); err != nil {
		s.logger.Warn("failed to persist cart state", slog.String("error", err.Error()))
	}
}

// restore loads persisted state at construction time.
func (s *Store) restore() {
	data, err := s.storage.Get(context.Background(), StateKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.Warn("failed to restore cart state", slog.String("error", err.Error()))
		}
		return
	}

	var state domain.Cart
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("corrupt persisted cart state, starting empty", slog.String("error", err.Error()))
		return
	}
	if state.Items == nil {
		state.Items = []domain.LineItem{}
	}
	s.state = state
}

// notify invokes observers outside the lock so they can call back into the
// store without deadlocking.
func (s *Store) notify() {
	s.mu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}
