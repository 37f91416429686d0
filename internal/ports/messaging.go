package ports

import "coffee-order/internal/domain/notifications"

// EventSink receives events emitted by accepted transitions. Delivery failure
// must never roll back the state change that produced the event.
type EventSink interface {
	Dispatch(ev notifications.Event) error
	ReportPaymentOutcome(orderID, outcome, actorID string) error
}
