package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-order/internal/domain/notifications"
	"coffee-order/internal/domain/orders"
)

func seedOrder(t *testing.T, store *OrderStore, id, ownerID string) *orders.Order {
	t.Helper()
	order := &orders.Order{
		ID:      id,
		OwnerID: ownerID,
		Items: []orders.OrderItem{
			{MenuID: 1, Name: "Americano", UnitPrice: 450, Quantity: 2},
		},
		Status:    orders.StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	order.SetTotalAmount()
	require.NoError(t, store.Create(context.Background(), order))
	return order
}

func TestOrderStore_CreateValidation(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	err := store.Create(ctx, &orders.Order{ID: "x", OwnerID: "u"})
	assert.ErrorIs(t, err, orders.ErrValidation, "empty items must be rejected")

	err = store.Create(ctx, &orders.Order{
		ID: "x", OwnerID: "u",
		Items: []orders.OrderItem{{MenuID: 1, Name: "Latte", UnitPrice: 550, Quantity: 0}},
	})
	assert.ErrorIs(t, err, orders.ErrValidation, "zero quantity must be rejected")
}

func TestOrderStore_OwnershipScoping(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	seedOrder(t, store, "order-1", "alice")

	got, err := store.Get(ctx, "order-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)

	// a foreign order reads exactly like a missing one
	_, err = store.Get(ctx, "order-1", "bob")
	assert.ErrorIs(t, err, orders.ErrNotFound)

	_, err = store.Get(ctx, "no-such-order", "alice")
	assert.ErrorIs(t, err, orders.ErrNotFound)

	// the administrative path bypasses scoping explicitly
	got, err = store.GetAny(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", got.ID)
}

func TestOrderStore_ListByOwner(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	a := seedOrder(t, store, "order-1", "alice")
	a.CreatedAt = a.CreatedAt.Add(-time.Hour) // not visible to the store: snapshots
	seedOrder(t, store, "order-2", "alice")
	seedOrder(t, store, "order-3", "bob")

	list, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, o := range list {
		assert.Equal(t, "alice", o.OwnerID)
	}

	empty, err := store.ListByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrderStore_SnapshotIsolation(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	seedOrder(t, store, "order-1", "alice")

	snap, err := store.Get(ctx, "order-1", "alice")
	require.NoError(t, err)

	// mutating the snapshot must not leak into the store
	snap.Status = orders.StatusCompleted
	snap.Items[0].Quantity = 99

	fresh, err := store.Get(ctx, "order-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, fresh.Status)
	assert.Equal(t, 2, fresh.Items[0].Quantity)
}

func TestOrderStore_ApplyStatus(t *testing.T) {
	store := NewOrderStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()
	seedOrder(t, store, "order-1", "alice")

	updated, ev, err := store.ApplyStatus(ctx, "order-1", orders.StatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, orders.StatusConfirmed, updated.Status)
	assert.Equal(t, fixed, updated.UpdatedAt)
	assert.Equal(t, notifications.KindOrderStatus, ev.Kind)
	assert.Equal(t, "confirmed", ev.StatusValue)
	assert.Equal(t, "alice", ev.ActorID)

	// idempotent repeat: no event, no error
	again, ev, err := store.ApplyStatus(ctx, "order-1", orders.StatusConfirmed)
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, orders.StatusConfirmed, again.Status)

	// illegal transition: nothing persisted
	_, _, err = store.ApplyStatus(ctx, "order-1", orders.StatusCompleted)
	var transitionErr *orders.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	fresh, err := store.Get(ctx, "order-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, fresh.Status)

	_, _, err = store.ApplyStatus(ctx, "missing", orders.StatusConfirmed)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestOrderStore_ConcurrentTransitions(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	seedOrder(t, store, "order-1", "alice")

	// only one of the concurrent pending->confirmed requests reports a change
	const workers = 16
	var wg sync.WaitGroup
	events := make(chan *notifications.Event, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ev, err := store.ApplyStatus(ctx, "order-1", orders.StatusConfirmed)
			if err == nil && ev != nil {
				events <- ev
			}
		}()
	}
	wg.Wait()
	close(events)

	var emitted int
	for range events {
		emitted++
	}
	assert.Equal(t, 1, emitted, "exactly one event per accepted transition")
}
