package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusPayload is the wire format on orders/{id}/status.
type StatusPayload struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"` // RFC 3339
	Message   string `json:"message"`
}

// PaymentPayload is the wire format on orders/{id}/payment. It substitutes
// "paymentStatus" for "status".
type PaymentPayload struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
	UserID        string `json:"userId"`
	Timestamp     string `json:"timestamp"`
	Message       string `json:"message"`
}

// Encode serializes the event for transmission according to its kind.
func Encode(ev Event) ([]byte, error) {
	ts := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.Kind {
	case KindOrderStatus:
		return json.Marshal(StatusPayload{
			OrderID:   ev.SubjectID,
			Status:    ev.StatusValue,
			UserID:    ev.ActorID,
			Timestamp: ts,
			Message:   ev.Message,
		})
	case KindPaymentStatus:
		return json.Marshal(PaymentPayload{
			OrderID:       ev.SubjectID,
			PaymentStatus: ev.StatusValue,
			UserID:        ev.ActorID,
			Timestamp:     ts,
			Message:       ev.Message,
		})
	default:
		return nil, fmt.Errorf("cannot encode event of kind %q", ev.Kind)
	}
}

// Decode parses an inbound payload of a known kind back into an Event.
func Decode(kind Kind, payload []byte) (Event, error) {
	switch kind {
	case KindOrderStatus:
		var p StatusPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Event{}, fmt.Errorf("decode status payload: %w", err)
		}
		at, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			return Event{}, fmt.Errorf("decode status timestamp: %w", err)
		}
		return Event{
			SubjectID:   p.OrderID,
			Kind:        KindOrderStatus,
			StatusValue: p.Status,
			ActorID:     p.UserID,
			Message:     p.Message,
			OccurredAt:  at,
		}, nil
	case KindPaymentStatus:
		var p PaymentPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return Event{}, fmt.Errorf("decode payment payload: %w", err)
		}
		at, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			return Event{}, fmt.Errorf("decode payment timestamp: %w", err)
		}
		return Event{
			SubjectID:   p.OrderID,
			Kind:        KindPaymentStatus,
			StatusValue: p.PaymentStatus,
			ActorID:     p.UserID,
			Message:     p.Message,
			OccurredAt:  at,
		}, nil
	default:
		return Event{}, fmt.Errorf("cannot decode event of kind %q", kind)
	}
}
