package notifications

import "time"

// Kind discriminates what a notification event describes.
type Kind string

const (
	KindOrderStatus   Kind = "OrderStatusChanged"
	KindPaymentStatus Kind = "PaymentStatusChanged"
	KindUnrecognized  Kind = "Unrecognized"
)

// Event is an immutable description of one state change, created exactly once
// per accepted transition and discarded after publish.
type Event struct {
	SubjectID   string
	Kind        Kind
	StatusValue string
	ActorID     string
	Message     string
	OccurredAt  time.Time
}

// statusMessages carries the human-readable copy per order status.
var statusMessages = map[string]string{
	"pending":   "Your order has been placed.",
	"confirmed": "Your order has been confirmed.",
	"preparing": "We have started preparing your order.",
	"ready":     "Your order is ready for pickup.",
	"completed": "Your order is complete. Enjoy!",
	"cancelled": "Your order has been cancelled.",
}

// paymentMessages carries the human-readable copy per payment outcome.
var paymentMessages = map[string]string{
	"succeeded": "Your payment was processed successfully.",
	"failed":    "Your payment could not be processed.",
}

// StatusChanged builds the event for an accepted order status transition.
func StatusChanged(orderID, actorID, status string, at time.Time) Event {
	msg, ok := statusMessages[status]
	if !ok {
		msg = "Your order status has been updated."
	}
	return Event{
		SubjectID:   orderID,
		Kind:        KindOrderStatus,
		StatusValue: status,
		ActorID:     actorID,
		Message:     msg,
		OccurredAt:  at,
	}
}

// PaymentChanged builds the event for a reported payment outcome.
func PaymentChanged(orderID, actorID, outcome string, at time.Time) Event {
	msg, ok := paymentMessages[outcome]
	if !ok {
		msg = "Your payment status has been updated."
	}
	return Event{
		SubjectID:   orderID,
		Kind:        KindPaymentStatus,
		StatusValue: outcome,
		ActorID:     actorID,
		Message:     msg,
		OccurredAt:  at,
	}
}
