package orderservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coffee-order/internal/domain/notifications"
	"coffee-order/internal/domain/orders"
	"coffee-order/internal/ports"
	"coffee-order/internal/shared/logger"
)

// Service implements ports.OrderService. It is the only path that mutates an
// order's status; every accepted transition hands exactly one event to the
// sink, after the mutation has committed.
type Service struct {
	repo   ports.OrderRepository
	events ports.EventSink
	logger *logger.Logger

	now func() time.Time
}

// Ensure Service implements the interface at compile time.
var _ ports.OrderService = (*Service)(nil)

// New creates an order service with the required dependencies.
func New(repo ports.OrderRepository, events ports.EventSink, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		events: events,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder validates input, builds the aggregate with a recomputed total,
// stores it, and announces the initial pending status.
func (service *Service) PlaceOrder(ctx context.Context, ownerID string, items []ports.ItemInput) (*orders.Order, error) {
	now := service.now()

	order := &orders.Order{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Items:     make([]orders.OrderItem, len(items)),
		Status:    orders.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, item := range items {
		order.Items[i] = orders.OrderItem{
			MenuID:    item.MenuID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	if err := orders.ValidateItems(order.Items); err != nil {
		return nil, err
	}
	order.SetTotalAmount()

	if err := service.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	service.logger.Info(ctx, "order_created", "Order created",
		map[string]any{"order_id": order.ID, "total_amount": order.TotalAmount.ToFloat()})

	service.announce(ctx, order.ID, order.OwnerID, string(order.Status), now)
	return order, nil
}

// GetOrder returns an owner-scoped snapshot.
func (service *Service) GetOrder(ctx context.Context, orderID, requesterID string) (*orders.Order, error) {
	return service.repo.Get(ctx, orderID, requesterID)
}

// ListOrders returns the requester's orders.
func (service *Service) ListOrders(ctx context.Context, ownerID string) ([]orders.Order, error) {
	return service.repo.ListByOwner(ctx, ownerID)
}

// SetStatus applies an administrative transition. Validation and event
// construction are delegated to the state machine behind the repository.
func (service *Service) SetStatus(ctx context.Context, orderID string, requested orders.OrderStatus) (*orders.Order, error) {
	order, ev, err := service.repo.ApplyStatus(ctx, orderID, requested)
	if err != nil {
		return nil, err
	}

	if ev != nil {
		service.logger.Info(ctx, "order_status_changed", "Order status changed",
			map[string]any{"order_id": order.ID, "status": string(order.Status)})
		service.dispatch(ctx, *ev)
	}
	return order, nil
}

// Cancel is the owner-scoped cancellation path. Ownership is checked first so
// a foreign order reads as not found, then the transition graph decides
// whether the current status still allows cancellation.
func (service *Service) Cancel(ctx context.Context, orderID, requesterID string) (*orders.Order, error) {
	if _, err := service.repo.Get(ctx, orderID, requesterID); err != nil {
		return nil, err
	}

	order, ev, err := service.repo.ApplyStatus(ctx, orderID, orders.StatusCancelled)
	if err != nil {
		return nil, err
	}

	if ev != nil {
		service.logger.Info(ctx, "order_cancelled", "Order cancelled",
			map[string]any{"order_id": order.ID})
		service.dispatch(ctx, *ev)
	}
	return order, nil
}

// ReportPayment relays a payment outcome from the payment layer. The order
// must exist; ownership is not enforced here because the gateway, not the
// customer, reports outcomes.
func (service *Service) ReportPayment(ctx context.Context, orderID, outcome, actorID string) error {
	if _, err := service.repo.GetAny(ctx, orderID); err != nil {
		return err
	}

	if err := service.events.ReportPaymentOutcome(orderID, outcome, actorID); err != nil {
		service.logger.Warn(ctx, "payment_notification_failed",
			"Payment notification could not be queued",
			map[string]any{"order_id": orderID, "error": err.Error()})
	}
	return nil
}

// announce builds and dispatches a status event outside the repository path
// (order creation).
func (service *Service) announce(ctx context.Context, orderID, ownerID, status string, at time.Time) {
	service.dispatch(ctx, notifications.StatusChanged(orderID, ownerID, status, at))
}

// dispatch hands an event to the sink. Failure is a warning: the state change
// has already committed and is never rolled back for a notification.
func (service *Service) dispatch(ctx context.Context, ev notifications.Event) {
	if err := service.events.Dispatch(ev); err != nil {
		service.logger.Warn(ctx, "notification_dispatch_failed",
			"Notification could not be queued",
			map[string]any{"order_id": ev.SubjectID, "error": err.Error()})
	}
}
