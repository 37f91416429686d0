package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"coffee-order/internal/domain/notifications"
	"coffee-order/internal/shared/logger"
)

// ErrQueueFull is returned when the outbound queue cannot accept another
// event. The caller's state mutation has already committed, so this is a
// warning-level outcome, never a reason to roll back.
var ErrQueueFull = errors.New("notify: dispatch queue is full")

// Publisher is the slice of the messaging client the dispatcher publishes
// through.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Handler consumes one decoded inbound event.
type Handler func(notifications.Event)

// Subscription is the explicit cancellation handle returned by Subscribe.
type Subscription struct {
	dispatcher *Dispatcher
	kind       notifications.Kind
	id         int
}

// Cancel removes the handler. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.dispatcher.mu.Lock()
	defer s.dispatcher.mu.Unlock()
	if set, ok := s.dispatcher.handlers[s.kind]; ok {
		delete(set, s.id)
	}
}

// Dispatcher decouples notification delivery from request handling. Outbound
// events go through a buffered queue drained by a background worker; inbound
// raw messages are classified, decoded, and fanned out to local handlers.
type Dispatcher struct {
	pub    Publisher
	logger *logger.Logger
	queue  chan notifications.Event

	mu       sync.Mutex
	nextID   int
	handlers map[notifications.Kind]map[int]Handler

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher builds a dispatcher publishing through pub with the given
// outbound queue length.
func NewDispatcher(pub Publisher, queueSize int, log *logger.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		pub:      pub,
		logger:   log,
		queue:    make(chan notifications.Event, queueSize),
		handlers: make(map[notifications.Kind]map[int]Handler),
		closed:   make(chan struct{}),
	}
}

// Start launches the publish worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.publishLoop()
}

// Stop terminates the publish worker. Events still queued are dropped; there
// is no durable event log in this design.
func (d *Dispatcher) Stop() {
	d.closeOnce.Do(func() { close(d.closed) })
	d.wg.Wait()
}

// Dispatch enqueues an event for at-least-once publish. It never blocks the
// caller: a full queue is reported as ErrQueueFull and the event is dropped.
func (d *Dispatcher) Dispatch(ev notifications.Event) error {
	select {
	case <-d.closed:
		return errors.New("notify: dispatcher is stopped")
	default:
	}

	select {
	case d.queue <- ev:
		return nil
	default:
		d.logger.Warn(context.Background(), "notification_dropped",
			"Outbound notification queue is full; dropping event",
			map[string]any{"order_id": ev.SubjectID, "kind": string(ev.Kind)})
		return ErrQueueFull
	}
}

// ReportPaymentOutcome is the entry point for the payment layer: it turns a
// payment outcome into a PaymentStatusChanged event.
func (d *Dispatcher) ReportPaymentOutcome(orderID, outcome, actorID string) error {
	return d.Dispatch(notifications.PaymentChanged(orderID, actorID, outcome, time.Now().UTC()))
}

// Subscribe registers a local handler for one event kind and returns its
// cancellation handle.
func (d *Dispatcher) Subscribe(kind notifications.Kind, fn Handler) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	if d.handlers[kind] == nil {
		d.handlers[kind] = make(map[int]Handler)
	}
	d.handlers[kind][id] = fn

	return &Subscription{dispatcher: d, kind: kind, id: id}
}

// HandleRaw demultiplexes one raw broker message to local subscribers. Wire it
// to the messaging client's OnMessage. Handler work is handed off to its own
// goroutine so the client's read loop never blocks, and a failing handler
// cannot prevent delivery to the others.
func (d *Dispatcher) HandleRaw(topic string, payload []byte) {
	ctx := context.Background()

	kind := Classify(topic)
	if kind == notifications.KindUnrecognized {
		d.logger.Debug(ctx, "notification_topic_unrecognized",
			"Dropping message on unrecognized topic", map[string]any{"topic": topic})
		return
	}

	ev, err := notifications.Decode(kind, payload)
	if err != nil {
		d.logger.Warn(ctx, "notification_decode_failed",
			"Dropping undecodable message", map[string]any{"topic": topic, "error": err.Error()})
		return
	}

	d.mu.Lock()
	handlers := make([]Handler, 0, len(d.handlers[kind]))
	for _, fn := range d.handlers[kind] {
		handlers = append(handlers, fn)
	}
	d.mu.Unlock()

	for _, fn := range handlers {
		go d.invoke(fn, ev)
	}
}

// invoke isolates handler panics from the rest of the fan-out.
func (d *Dispatcher) invoke(fn Handler, ev notifications.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(context.Background(), "notification_handler_panicked",
				"Notification handler panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	fn(ev)
}

// publishLoop drains the outbound queue.
func (d *Dispatcher) publishLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.closed:
			return
		case ev := <-d.queue:
			d.publishOne(ev)
		}
	}
}

// publishOne serializes and publishes a single event. Failures are logged at
// warning level; the transition that produced the event has already committed.
func (d *Dispatcher) publishOne(ev notifications.Event) {
	ctx := context.Background()

	topic := EventTopic(ev.SubjectID, ev.Kind)
	if topic == "" {
		d.logger.Warn(ctx, "notification_topic_missing",
			"No topic for event kind; dropping", map[string]any{"kind": string(ev.Kind)})
		return
	}

	payload, err := notifications.Encode(ev)
	if err != nil {
		d.logger.Warn(ctx, "notification_encode_failed",
			"Failed to encode event; dropping",
			map[string]any{"order_id": ev.SubjectID, "error": err.Error()})
		return
	}

	if err := d.pub.Publish(ctx, topic, payload); err != nil {
		d.logger.Warn(ctx, "notification_publish_failed",
			"Failed to publish notification",
			map[string]any{"topic": topic, "error": err.Error()})
		return
	}

	d.logger.Debug(ctx, "notification_published", "Published notification",
		map[string]any{"topic": topic, "status": ev.StatusValue})
}
