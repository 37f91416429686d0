package ports

import (
	"context"

	"coffee-order/internal/domain/notifications"
	"coffee-order/internal/domain/orders"
)

// OrderRepository stores orders and answers lookups. All mutating operations
// on a given order are linearized; reads observe consistent snapshots.
type OrderRepository interface {
	// Create validates the order shape and stores it.
	Create(ctx context.Context, order *orders.Order) error

	// Get returns the order only when requesterID owns it; otherwise
	// orders.ErrNotFound, indistinguishable from a missing order.
	Get(ctx context.Context, orderID, requesterID string) (*orders.Order, error)

	// GetAny is the explicit administrative bypass of ownership scoping.
	GetAny(ctx context.Context, orderID string) (*orders.Order, error)

	ListByOwner(ctx context.Context, ownerID string) ([]orders.Order, error)

	// ApplyStatus validates the transition through the state machine and
	// persists it only if accepted. The returned event is nil for idempotent
	// requests and set exactly once per accepted transition.
	ApplyStatus(ctx context.Context, orderID string, next orders.OrderStatus) (*orders.Order, *notifications.Event, error)
}
