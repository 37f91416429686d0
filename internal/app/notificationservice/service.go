package notificationservice

import (
	"context"
	"fmt"
	"time"

	"coffee-order/internal/domain/notifications"
	"coffee-order/internal/notify"
	"coffee-order/internal/shared/logger"
)

// Feed prints a human-readable line for every order and payment notification
// delivered to this process.
type Feed struct {
	logger *logger.Logger
	subs   []*notify.Subscription
}

// NewFeed subscribes to both event kinds on the dispatcher.
func NewFeed(dispatcher *notify.Dispatcher, log *logger.Logger) *Feed {
	feed := &Feed{logger: log}
	feed.subs = append(feed.subs,
		dispatcher.Subscribe(notifications.KindOrderStatus, feed.handle),
		dispatcher.Subscribe(notifications.KindPaymentStatus, feed.handle),
	)
	return feed
}

// Stop cancels the feed's subscriptions.
func (feed *Feed) Stop() {
	for _, sub := range feed.subs {
		sub.Cancel()
	}
}

func (feed *Feed) handle(ev notifications.Event) {
	feed.logger.Debug(context.Background(), "notification_received",
		"Received notification", map[string]any{
			"order_id": ev.SubjectID,
			"kind":     string(ev.Kind),
			"status":   ev.StatusValue,
		})

	fmt.Println(renderHuman(ev))
}

// renderHuman formats one feed line.
func renderHuman(ev notifications.Event) string {
	label := "Order"
	if ev.Kind == notifications.KindPaymentStatus {
		label = "Payment for order"
	}
	return fmt.Sprintf("[%s] %s %s is now '%s'. %s",
		ev.OccurredAt.UTC().Format(time.RFC3339), label, ev.SubjectID, ev.StatusValue, ev.Message)
}
