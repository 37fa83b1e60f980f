package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naochaLuwang/daciana-cart/internal/cart"
	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/internal/localstore/memory"
	"github.com/naochaLuwang/daciana-cart/internal/remote"
)

// --- Test Helpers ---

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) FindCartItems(ctx context.Context, userID string) ([]remote.CartItemRow, bool, error) {
	args := m.Called(ctx, userID)
	var rows []remote.CartItemRow
	if v := args.Get(0); v != nil {
		rows = v.([]remote.CartItemRow)
	}
	return rows, args.Bool(1), args.Error(2)
}

func (m *mockRemote) GetOrCreateCart(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) ReplaceCartItems(ctx context.Context, cartID string, items []domain.LineItem) error {
	args := m.Called(ctx, cartID, items)
	return args.Error(0)
}

// pushRecorder captures pushed item lists for assertions across goroutines.
type pushRecorder struct {
	mu     sync.Mutex
	pushes [][]domain.LineItem
}

func (r *pushRecorder) record(args mock.Arguments) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := args.Get(2).([]domain.LineItem)
	snap := make([]domain.LineItem, len(items))
	copy(snap, items)
	r.pushes = append(r.pushes, snap)
}

func (r *pushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

func (r *pushRecorder) last() []domain.LineItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pushes) == 0 {
		return nil
	}
	return r.pushes[len(r.pushes)-1]
}

const testDebounce = 20 * time.Millisecond

func newTestSyncer(t *testing.T, rm *mockRemote) (*Syncer, *cart.Store) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := cart.NewStore(memory.New(), logger)
	s := NewSyncer(store, rm, nil, logger, testDebounce)
	t.Cleanup(s.Close)
	return s, store
}

func penItem() domain.LineItem {
	return domain.LineItem{
		ProductID:    "prod-pen",
		VariantID:    "var-pen-blue",
		Name:         "Fountain Pen",
		VariantLabel: "Midnight Blue",
		UnitPrice:    45000,
		Quantity:     1,
		StockCeiling: 8,
	}
}

func notebookRow() remote.CartItemRow {
	return remote.CartItemRow{
		Quantity:   2,
		PriceAtAdd: 12000,
		Product:    &remote.ProductRef{ID: "prod-nb", Name: "Notebook", ImageURL: "https://cdn/nb.jpg"},
		Variant:    &remote.VariantRef{ID: "var-nb-a5", Label: "A5 Dotted", Stock: 5},
	}
}

// --- Hydration Tests ---

func TestSyncer_LoginPullsExactlyOnce(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").
		Return([]remote.CartItemRow{notebookRow()}, true, nil).Once()

	s, store := newTestSyncer(t, rm)

	s.SetIdentity(context.Background(), "user-1")
	s.SetIdentity(context.Background(), "user-1")
	s.SetIdentity(context.Background(), "user-1")

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "var-nb-a5", snap.Items[0].VariantID)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, int64(12000), snap.Items[0].UnitPrice)
	assert.Equal(t, 5, snap.Items[0].StockCeiling)

	rm.AssertNumberOfCalls(t, "FindCartItems", 1)
}

func TestSyncer_HydrationReplacesLocalItems(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").
		Return([]remote.CartItemRow{notebookRow()}, true, nil)

	s, store := newTestSyncer(t, rm)
	store.AddItem(penItem())

	s.SetIdentity(context.Background(), "user-1")

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "var-nb-a5", snap.Items[0].VariantID)
}

func TestSyncer_NoRemoteCartKeepsLocalItems(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)

	s, store := newTestSyncer(t, rm)
	store.AddItem(penItem())

	s.SetIdentity(context.Background(), "user-1")

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "var-pen-blue", snap.Items[0].VariantID)
}

func TestSyncer_HydrationSkipsRowsMissingCatalogRefs(t *testing.T) {
	orphanProduct := notebookRow()
	orphanProduct.Product = nil
	orphanVariant := notebookRow()
	orphanVariant.Variant = nil

	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").
		Return([]remote.CartItemRow{orphanProduct, notebookRow(), orphanVariant}, true, nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "var-nb-a5", snap.Items[0].VariantID)
}

func TestSyncer_HydrationItselfDoesNotPush(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").
		Return([]remote.CartItemRow{notebookRow()}, true, nil)

	s, _ := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")

	time.Sleep(4 * testDebounce)

	rm.AssertNotCalled(t, "GetOrCreateCart", mock.Anything, mock.Anything)
	rm.AssertNotCalled(t, "ReplaceCartItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_PullFailureContinuesOnLocalState(t *testing.T) {
	rec := &pushRecorder{}
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").
		Return(nil, false, errors.New("connection refused"))
	rm.On("GetOrCreateCart", mock.Anything, "user-1").Return("cart-1", nil)
	rm.On("ReplaceCartItems", mock.Anything, "cart-1", mock.Anything).
		Run(rec.record).Return(nil)

	s, store := newTestSyncer(t, rm)
	store.AddItem(penItem())

	s.SetIdentity(context.Background(), "user-1")

	// The session degrades to local state and later edits still push.
	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)

	store.UpdateQuantity("var-pen-blue", 3)

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	last := rec.last()
	require.Len(t, last, 1)
	assert.Equal(t, 3, last[0].Quantity)
}

// --- Push Tests ---

func TestSyncer_DebouncedPushCoalescesBurst(t *testing.T) {
	rec := &pushRecorder{}
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)
	rm.On("GetOrCreateCart", mock.Anything, "user-1").Return("cart-1", nil)
	rm.On("ReplaceCartItems", mock.Anything, "cart-1", mock.Anything).
		Run(rec.record).Return(nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")

	store.AddItem(penItem())
	store.AddItem(penItem())
	store.AddItem(penItem())

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(4 * testDebounce)

	// A burst of edits collapses into one push carrying the final state.
	assert.Equal(t, 1, rec.count())
	last := rec.last()
	require.Len(t, last, 1)
	assert.Equal(t, 3, last[0].Quantity)
	rm.AssertNumberOfCalls(t, "GetOrCreateCart", 1)
}

func TestSyncer_QuantityChangePushesFinalState(t *testing.T) {
	rec := &pushRecorder{}
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)
	rm.On("GetOrCreateCart", mock.Anything, "user-1").Return("cart-1", nil)
	rm.On("ReplaceCartItems", mock.Anything, "cart-1", mock.Anything).
		Run(rec.record).Return(nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")

	item := penItem()
	item.Quantity = 2
	item.StockCeiling = 5
	store.AddItem(item)
	store.UpdateQuantity("var-pen-blue", 5)

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 5*time.Millisecond)

	last := rec.last()
	require.Len(t, last, 1)
	assert.Equal(t, "var-pen-blue", last[0].VariantID)
	assert.Equal(t, 5, last[0].Quantity)
}

func TestSyncer_AnonymousChangesNeverPush(t *testing.T) {
	rm := &mockRemote{}
	_, store := newTestSyncer(t, rm)

	store.AddItem(penItem())
	store.UpdateQuantity("var-pen-blue", 4)
	store.RemoveItem("var-pen-blue")

	time.Sleep(4 * testDebounce)

	rm.AssertNotCalled(t, "GetOrCreateCart", mock.Anything, mock.Anything)
	rm.AssertNotCalled(t, "ReplaceCartItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_PushFailureIsDroppedNotRetried(t *testing.T) {
	var attempts atomic.Int32
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)
	rm.On("GetOrCreateCart", mock.Anything, "user-1").
		Run(func(mock.Arguments) { attempts.Add(1) }).
		Return("", errors.New("connection refused"))

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")

	store.AddItem(penItem())

	require.Eventually(t, func() bool { return attempts.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(4 * testDebounce)

	rm.AssertNumberOfCalls(t, "GetOrCreateCart", 1)
	rm.AssertNotCalled(t, "ReplaceCartItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_FlushPushesPendingChangeImmediately(t *testing.T) {
	rec := &pushRecorder{}
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)
	rm.On("GetOrCreateCart", mock.Anything, "user-1").Return("cart-1", nil)
	rm.On("ReplaceCartItems", mock.Anything, "cart-1", mock.Anything).
		Run(rec.record).Return(nil)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := cart.NewStore(memory.New(), logger)
	s := NewSyncer(store, rm, nil, logger, time.Minute)
	t.Cleanup(s.Close)

	s.SetIdentity(context.Background(), "user-1")
	store.AddItem(penItem())

	s.Flush(context.Background())

	assert.Equal(t, 1, rec.count())
}

func TestSyncer_CloseCancelsPendingPush(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")

	store.AddItem(penItem())
	s.Close()

	time.Sleep(4 * testDebounce)

	rm.AssertNotCalled(t, "GetOrCreateCart", mock.Anything, mock.Anything)
}

// --- Identity Transition Tests ---

func TestSyncer_LogoutClearsLocalCartWithoutPushing(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")
	store.AddItem(penItem())

	s.SetIdentity(context.Background(), "")

	assert.Empty(t, store.Snapshot().Items)

	time.Sleep(4 * testDebounce)
	rm.AssertNotCalled(t, "GetOrCreateCart", mock.Anything, mock.Anything)
}

func TestSyncer_UserSwitchClearsBeforeHydrating(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, "user-1").Return(nil, false, nil)
	rm.On("FindCartItems", mock.Anything, "user-2").
		Return([]remote.CartItemRow{notebookRow()}, true, nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")
	store.AddItem(penItem())

	s.SetIdentity(context.Background(), "user-2")

	// The first user's items never leak into the second session.
	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "var-nb-a5", snap.Items[0].VariantID)

	rm.AssertNumberOfCalls(t, "FindCartItems", 2)
}

func TestSyncer_UserSwitchWithEmptyRemoteLeavesEmptyCart(t *testing.T) {
	rm := &mockRemote{}
	rm.On("FindCartItems", mock.Anything, mock.Anything).Return(nil, false, nil)

	s, store := newTestSyncer(t, rm)
	s.SetIdentity(context.Background(), "user-1")
	store.AddItem(penItem())

	s.SetIdentity(context.Background(), "user-2")

	assert.Empty(t, store.Snapshot().Items)
}
