package ports

import (
	"context"

	"coffee-order/internal/domain/orders"
)

// ItemInput is a requested line item. The unit price is still re-priced into
// the recomputed order total; totals from input are never trusted.
type ItemInput struct {
	MenuID    int
	Name      string
	UnitPrice orders.Money
	Quantity  int
}

// OrderService is the surface the HTTP layer calls into.
type OrderService interface {
	PlaceOrder(ctx context.Context, ownerID string, items []ItemInput) (*orders.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID string) (*orders.Order, error)
	ListOrders(ctx context.Context, ownerID string) ([]orders.Order, error)

	// SetStatus is the administrative transition path.
	SetStatus(ctx context.Context, orderID string, requested orders.OrderStatus) (*orders.Order, error)

	// Cancel is the owner-scoped cancellation path. Only pending and
	// confirmed orders can be cancelled.
	Cancel(ctx context.Context, orderID, requesterID string) (*orders.Order, error)

	// ReportPayment is called by the payment layer once a payment outcome is
	// known; it becomes a PaymentStatusChanged notification.
	ReportPayment(ctx context.Context, orderID, outcome, actorID string) error
}
