// Package sync reconciles the local cart store with the server-side cart
// mirror. The synchronizer is a per-identity state machine: anonymous until a
// login, pulling while the remote cart is being fetched, ready afterwards.
// Local changes made while ready are pushed as full replacements after a
// debounce window; nothing is ever pushed before hydration has finished.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/naochaLuwang/daciana-cart/internal/cart"
	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/internal/event"
	"github.com/naochaLuwang/daciana-cart/internal/remote"
)

// DefaultDebounce is the push debounce window used when no explicit duration
// is configured. Long enough to coalesce a burst of quantity taps, short
// enough that a closed session rarely loses a change.
const DefaultDebounce = 1500 * time.Millisecond

var (
	pullsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_pulls_total",
		Help: "Completed hydration pulls from the remote cart store.",
	})
	pushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_pushes_total",
		Help: "Successful full-replace pushes to the remote cart store.",
	})
	pushFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_push_failures_total",
		Help: "Pushes that failed and were dropped.",
	})
	rowsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_rows_skipped_total",
		Help: "Remote cart rows skipped during hydration because their product or variant was deleted.",
	})
)

type syncState int

const (
	stateAnonymous syncState = iota
	statePulling
	stateReady
)

// Syncer keeps the local cart store and the remote mirror consistent for the
// currently authenticated shopper. It subscribes to the store at construction
// time; identity changes arrive through SetIdentity.
type Syncer struct {
	store    *cart.Store
	remote   remote.CartStore
	producer *event.Producer
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	userID string
	state  syncState
	timer  *time.Timer
	closed bool
}

// NewSyncer creates a synchronizer in the anonymous state and subscribes it
// to the store's item-list changes. producer may be nil when event publishing
// is not wired.
func NewSyncer(store *cart.Store, remoteStore remote.CartStore, producer *event.Producer, logger *slog.Logger, debounce time.Duration) *Syncer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	s := &Syncer{
		store:    store,
		remote:   remoteStore,
		producer: producer,
		logger:   logger,
		debounce: debounce,
		state:    stateAnonymous,
	}
	store.Subscribe(s.onCartChanged)
	return s
}

// SetIdentity reacts to an identity transition. A logout clears the local
// cart and returns to anonymous. A login from anonymous keeps the local cart
// and hydrates from the remote mirror; a direct switch between two users
// clears first so one shopper's cart never leaks into another's session.
// Repeated calls with the current identity are no-ops, which makes the pull
// happen exactly once per login.
func (s *Syncer) SetIdentity(ctx context.Context, userID string) {
	s.mu.Lock()
	if s.closed || s.userID == userID {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()

	prev := s.userID
	s.userID = userID

	if userID == "" {
		s.state = stateAnonymous
		s.mu.Unlock()

		s.store.Clear()
		s.logger.InfoContext(ctx, "identity cleared, local cart reset")
		return
	}

	s.state = statePulling
	s.mu.Unlock()

	if prev != "" {
		s.store.Clear()
	}

	s.hydrate(ctx, userID)
}

// Flush pushes the current cart immediately if a debounced push is pending,
// cancelling the timer. Used on shutdown so a recent change is not lost.
func (s *Syncer) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	userID := s.userID
	s.mu.Unlock()

	s.push(ctx, userID)
}

// Close cancels any pending push and stops the synchronizer. Subsequent
// identity changes and store notifications are ignored.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.closed = true
}

// hydrate performs the one-time pull for a freshly logged-in user. When a
// remote cart exists its rows replace the local items wholesale; when it does
// not, the local cart survives untouched. Rows whose product or variant join
// came back empty are logged and skipped. A pull failure is logged and the
// session proceeds on local state alone.
func (s *Syncer) hydrate(ctx context.Context, userID string) {
	rows, exists, err := s.remote.FindCartItems(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "cart hydration failed, continuing on local state",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.markReady(userID)
		return
	}

	if exists {
		items := make([]domain.LineItem, 0, len(rows))
		for _, row := range rows {
			if row.Product == nil || row.Variant == nil {
				rowsSkippedTotal.Inc()
				s.logger.WarnContext(ctx, "skipping remote cart row with missing catalog reference",
					slog.String("user_id", userID),
				)
				continue
			}
			items = append(items, domain.LineItem{
				ProductID:    row.Product.ID,
				VariantID:    row.Variant.ID,
				Name:         row.Product.Name,
				VariantLabel: row.Variant.Label,
				UnitPrice:    row.PriceAtAdd,
				ImageURL:     row.Product.ImageURL,
				Quantity:     row.Quantity,
				StockCeiling: row.Variant.Stock,
			})
		}

		// The store notifies observers here, but the state is still pulling,
		// so no push gets armed for the hydrated items themselves.
		s.store.SetItems(items)
	}

	pullsTotal.Inc()
	s.logger.InfoContext(ctx, "cart hydrated",
		slog.String("user_id", userID),
		slog.Bool("remote_cart_exists", exists),
		slog.Int("items", s.store.TotalItems()),
	)

	s.markReady(userID)
}

// markReady transitions pulling to ready unless the identity changed while
// the pull was in flight.
func (s *Syncer) markReady(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID && s.state == statePulling {
		s.state = stateReady
	}
}

// onCartChanged is the store observer. Each item-list change while ready
// restarts the debounce timer, so a burst of edits collapses into one push
// carrying the final state.
func (s *Syncer) onCartChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != stateReady {
		return
	}

	userID := s.userID
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.push(context.Background(), userID)
	})
}

// push replaces the remote cart with the current local snapshot. The cart
// record is resolved (and created if needed) first, then its rows are
// replaced in one transaction. Stale pushes, armed before an identity change,
// are discarded.
func (s *Syncer) push(ctx context.Context, userID string) {
	s.mu.Lock()
	if s.closed || s.state != stateReady || s.userID != userID {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	snap := s.store.Snapshot()

	cartID, err := s.remote.GetOrCreateCart(ctx, userID)
	if err != nil {
		pushFailuresTotal.Inc()
		s.logger.ErrorContext(ctx, "cart push failed to resolve cart record",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.remote.ReplaceCartItems(ctx, cartID, snap.Items); err != nil {
		pushFailuresTotal.Inc()
		s.logger.ErrorContext(ctx, "cart push failed to replace items",
			slog.String("user_id", userID),
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
		return
	}

	pushesTotal.Inc()
	s.logger.InfoContext(ctx, "cart pushed",
		slog.String("user_id", userID),
		slog.String("cart_id", cartID),
		slog.Int("items", len(snap.Items)),
	)

	if s.producer != nil {
		if err := s.producer.PublishCartSynced(ctx, userID, cartID, snap.TotalItems()); err != nil {
			s.logger.WarnContext(ctx, "failed to publish cart.synced event",
				slog.String("error", err.Error()),
			)
		}
	}
}

// stopTimerLocked cancels a pending push. Caller must hold s.mu.
func (s *Syncer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
