package notify

import (
	"strings"

	"coffee-order/internal/domain/notifications"
)

// Topic scheme, the single source of truth for topic shape so publisher and
// subscriber never drift:
//
//	orders/{orderId}/status
//	orders/{orderId}/payment
const (
	topicRoot     = "orders"
	statusLeaf    = "status"
	paymentLeaf   = "payment"
	StatusFilter  = topicRoot + "/+/" + statusLeaf
	PaymentFilter = topicRoot + "/+/" + paymentLeaf
)

// EventTopic maps an order id and event kind to its topic.
func EventTopic(orderID string, kind notifications.Kind) string {
	switch kind {
	case notifications.KindOrderStatus:
		return topicRoot + "/" + orderID + "/" + statusLeaf
	case notifications.KindPaymentStatus:
		return topicRoot + "/" + orderID + "/" + paymentLeaf
	default:
		return ""
	}
}

// Classify maps an inbound topic back to an event kind.
func Classify(topic string) notifications.Kind {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != topicRoot || parts[1] == "" {
		return notifications.KindUnrecognized
	}
	switch parts[2] {
	case statusLeaf:
		return notifications.KindOrderStatus
	case paymentLeaf:
		return notifications.KindPaymentStatus
	default:
		return notifications.KindUnrecognized
	}
}
