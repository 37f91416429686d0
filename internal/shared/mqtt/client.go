package mqtt

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"time"

	"coffee-order/internal/shared/logger"
)

// State is the externally observable connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Options tune connection management. Zero values fall back to defaults.
type Options struct {
	AckTimeout     time.Duration // broker ack wait for publish/subscribe
	ConnectTimeout time.Duration // single connection attempt bound
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (o *Options) applyDefaults() {
	if o.AckTimeout <= 0 {
		o.AckTimeout = 5 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = 30 * time.Second
	}
}

// Client owns one logical broker connection shared by all publishers and
// subscribers in the process. It reconnects with jittered exponential backoff
// and re-issues every registered subscription after each successful reconnect.
type Client struct {
	transport Transport
	logger    *logger.Logger
	opts      Options

	mu        sync.Mutex
	state     State
	started   bool
	subs      []string
	onMessage []func(topic string, payload []byte)
	onState   []func(State)
	onFatal   []func(error)

	closed    chan struct{}
	closeOnce sync.Once
	dropped   chan struct{}
	runDone   chan struct{}
}

// New builds a Client over the given transport. Start must be called before
// the client attempts any connection.
func New(transport Transport, opts Options, log *logger.Logger) *Client {
	opts.applyDefaults()

	client := &Client{
		transport: transport,
		logger:    log,
		opts:      opts,
		state:     StateDisconnected,
		closed:    make(chan struct{}),
		dropped:   make(chan struct{}, 1),
		runDone:   make(chan struct{}),
	}

	transport.HandleMessage(client.dispatchMessage)
	transport.HandleConnectionLost(func(err error) {
		client.logger.Warn(context.Background(), "broker_connection_lost",
			"Broker connection lost", map[string]any{"error": errString(err)})
		select {
		case client.dropped <- struct{}{}:
		default:
			// reconnect already signalled
		}
	})

	return client
}

// Start begins connecting in the background. It is non-blocking and idempotent
// while the client is already connecting or connected.
func (client *Client) Start() {
	client.mu.Lock()
	if client.started {
		client.mu.Unlock()
		return
	}
	select {
	case <-client.closed:
		client.mu.Unlock()
		return
	default:
	}
	client.started = true
	client.mu.Unlock()

	go func() {
		defer close(client.runDone)
		client.run()
	}()
}

// Stop releases the connection and cancels any pending reconnect timer.
// The session is terminal: a stopped client never reconnects.
func (client *Client) Stop() {
	client.closeOnce.Do(func() { close(client.closed) })

	client.mu.Lock()
	started := client.started
	client.mu.Unlock()
	if started {
		<-client.runDone
	}

	client.transport.Disconnect(250 * time.Millisecond)
	client.setState(StateDisconnected)
}

// State returns the current connection state.
func (client *Client) State() State {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.state
}

// Publish sends one message at QoS 1 and waits for the broker ack, bounded by
// the ack timeout. It fails fast with ErrNotConnected while disconnected.
func (client *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if client.State() != StateConnected {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, client.opts.AckTimeout)
	defer cancel()

	if err := client.transport.Publish(ctx, topic, payload); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrPublishTimeout
		}
		return err
	}
	return nil
}

// Subscribe registers interest in a topic filter. The registration survives
// connection loss: it is re-issued after every successful reconnect. When
// called while connected the subscription is also issued immediately.
func (client *Client) Subscribe(filter string) error {
	client.mu.Lock()
	if !slices.Contains(client.subs, filter) {
		client.subs = append(client.subs, filter)
	}
	connected := client.state == StateConnected
	client.mu.Unlock()

	if !connected {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), client.opts.AckTimeout)
	defer cancel()
	return client.transport.Subscribe(ctx, filter)
}

// OnMessage registers a callback invoked once per inbound message, in arrival
// order for a single connection session.
func (client *Client) OnMessage(fn func(topic string, payload []byte)) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.onMessage = append(client.onMessage, fn)
}

// OnStateChange registers an observer of connection-state transitions.
func (client *Client) OnStateChange(fn func(State)) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.onState = append(client.onState, fn)
}

// OnFatal registers a callback for errors that cannot succeed on retry. After
// such an error is reported the client stops retrying.
func (client *Client) OnFatal(fn func(error)) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.onFatal = append(client.onFatal, fn)
}

// --- internals ---

// run is the connection loop: connect, resubscribe, wait for a drop, back off,
// repeat until Stop.
func (client *Client) run() {
	ctx := context.Background()
	backoff := client.opts.InitialBackoff

	for {
		select {
		case <-client.closed:
			return
		default:
		}

		// drop any stale disconnect signal from a previous session
		select {
		case <-client.dropped:
		default:
		}

		client.setState(StateConnecting)

		connectCtx, cancel := context.WithTimeout(ctx, client.opts.ConnectTimeout)
		err := client.transport.Connect(connectCtx)
		cancel()

		if err != nil {
			if IsFatal(err) {
				client.logger.Error(ctx, "broker_connect_fatal",
					"Broker connection failed permanently; giving up", err)
				client.setState(StateDisconnected)
				client.fireFatal(err)
				return
			}

			client.logger.Warn(ctx, "broker_connect_retry",
				"Broker connection failed; will retry",
				map[string]any{"error": errString(err), "backoff": backoff.String()})
			client.setState(StateReconnecting)
			if !client.sleep(withJitter(backoff)) {
				return
			}
			backoff = nextBackoff(backoff, client.opts.MaxBackoff)
			continue
		}

		// reset backoff on success
		backoff = client.opts.InitialBackoff
		client.setState(StateConnected)
		client.resubscribe(ctx)

		select {
		case <-client.closed:
			return
		case <-client.dropped:
			client.setState(StateReconnecting)
			if !client.sleep(withJitter(backoff)) {
				return
			}
			backoff = nextBackoff(backoff, client.opts.MaxBackoff)
		}
	}
}

// resubscribe replays every registered topic filter on the fresh connection.
func (client *Client) resubscribe(ctx context.Context) {
	client.mu.Lock()
	filters := slices.Clone(client.subs)
	client.mu.Unlock()

	for _, filter := range filters {
		subCtx, cancel := context.WithTimeout(ctx, client.opts.AckTimeout)
		err := client.transport.Subscribe(subCtx, filter)
		cancel()
		if err != nil {
			client.logger.Error(ctx, "broker_resubscribe_failed",
				"Failed to restore subscription "+filter, err)
		}
	}
}

func (client *Client) dispatchMessage(topic string, payload []byte) {
	client.mu.Lock()
	handlers := slices.Clone(client.onMessage)
	client.mu.Unlock()

	for _, fn := range handlers {
		fn(topic, payload)
	}
}

func (client *Client) setState(next State) {
	client.mu.Lock()
	if client.state == next {
		client.mu.Unlock()
		return
	}
	client.state = next
	observers := slices.Clone(client.onState)
	client.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}

func (client *Client) fireFatal(err error) {
	client.mu.Lock()
	handlers := slices.Clone(client.onFatal)
	client.mu.Unlock()

	for _, fn := range handlers {
		fn(err)
	}
}

// sleep waits for d or returns false if the client is stopped meanwhile.
func (client *Client) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-client.closed:
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff doubles the delay up to cap.
func nextBackoff(curr, cap time.Duration) time.Duration {
	n := curr * 2
	if n > cap {
		return cap
	}
	return n
}

// withJitter spreads retries so multiple instances do not reconnect in sync.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
