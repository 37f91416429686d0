package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"coffee-order/internal/domain/notifications"
	"coffee-order/internal/domain/orders"
	"coffee-order/internal/ports"
)

// OrderStore is an in-process order repository. The index mutex only guards
// the map; each order carries its own lock, so mutations on unrelated orders
// never contend.
type OrderStore struct {
	mu    sync.RWMutex
	index map[string]*entry

	// now is swappable for tests.
	now func() time.Time
}

type entry struct {
	mu    sync.Mutex
	order orders.Order
}

var _ ports.OrderRepository = (*OrderStore)(nil)

// NewOrderStore creates an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		index: make(map[string]*entry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the order shape and stores a copy.
func (store *OrderStore) Create(_ context.Context, order *orders.Order) error {
	if err := orders.ValidateItems(order.Items); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.index[order.ID] = &entry{order: *order.Clone()}
	return nil
}

// Get returns a snapshot of the order, scoped to its owner.
func (store *OrderStore) Get(_ context.Context, orderID, requesterID string) (*orders.Order, error) {
	e := store.lookup(orderID)
	if e == nil {
		return nil, orders.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.order.OwnerID != requesterID {
		// not distinguishable from a missing order
		return nil, orders.ErrNotFound
	}
	return e.order.Clone(), nil
}

// GetAny bypasses ownership scoping. Administrative callers only.
func (store *OrderStore) GetAny(_ context.Context, orderID string) (*orders.Order, error) {
	e := store.lookup(orderID)
	if e == nil {
		return nil, orders.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Clone(), nil
}

// ListByOwner returns snapshots of the owner's orders, newest first.
func (store *OrderStore) ListByOwner(_ context.Context, ownerID string) ([]orders.Order, error) {
	store.mu.RLock()
	entries := make([]*entry, 0, len(store.index))
	for _, e := range store.index {
		entries = append(entries, e)
	}
	store.mu.RUnlock()

	var result []orders.Order
	for _, e := range entries {
		e.mu.Lock()
		if e.order.OwnerID == ownerID {
			result = append(result, *e.order.Clone())
		}
		e.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ApplyStatus runs the transition under the order's lock, persisting only
// accepted transitions and emitting exactly one event per status change.
func (store *OrderStore) ApplyStatus(_ context.Context, orderID string, next orders.OrderStatus) (*orders.Order, *notifications.Event, error) {
	e := store.lookup(orderID)
	if e == nil {
		return nil, nil, orders.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	applied, changed, err := orders.Transition(e.order.Status, next)
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		// idempotent request: no mutation, no event
		return e.order.Clone(), nil, nil
	}

	now := store.now()
	e.order.Status = applied
	e.order.UpdatedAt = now

	ev := notifications.StatusChanged(e.order.ID, e.order.OwnerID, string(applied), now)
	return e.order.Clone(), &ev, nil
}

func (store *OrderStore) lookup(orderID string) *entry {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.index[orderID]
}
