package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
)

// QoS 1: at-least-once.
const qosAtLeastOnce byte = 1

// PahoTransport adapts the eclipse paho MQTT client to the Transport port.
// Automatic reconnection is disabled; the Client owns the reconnect policy.
type PahoTransport struct {
	opts   *pahomqtt.ClientOptions
	client pahomqtt.Client

	msgFn  func(topic string, payload []byte)
	lostFn func(err error)
}

// NewPahoTransport validates the endpoint and prepares connection options.
// A malformed endpoint is a configuration error and fails here, not on retry.
func NewPahoTransport(endpoint, username, password, clientID string) (*PahoTransport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("mqtt: invalid broker endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "tcp", "ssl", "tls", "ws", "wss":
	default:
		return nil, fmt.Errorf("mqtt: unsupported broker scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("mqtt: broker endpoint %q has no host", endpoint)
	}

	transport := &PahoTransport{}

	opts := pahomqtt.NewClientOptions().
		AddBroker(endpoint).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetKeepAlive(30 * time.Second).
		SetOrderMatters(true)

	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, m pahomqtt.Message) {
		if transport.msgFn != nil {
			transport.msgFn(m.Topic(), m.Payload())
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if transport.lostFn != nil {
			transport.lostFn(err)
		}
	})

	transport.opts = opts
	return transport, nil
}

// HandleMessage installs the inbound message callback. Must run before Connect.
func (t *PahoTransport) HandleMessage(fn func(topic string, payload []byte)) {
	t.msgFn = fn
}

// HandleConnectionLost installs the disconnect callback. Must run before Connect.
func (t *PahoTransport) HandleConnectionLost(fn func(err error)) {
	t.lostFn = fn
}

// Connect performs one blocking connection attempt.
func (t *PahoTransport) Connect(ctx context.Context) error {
	if t.client == nil {
		t.client = pahomqtt.NewClient(t.opts)
	}

	token := t.client.Connect()
	if err := waitToken(ctx, token); err != nil {
		return classifyConnectError(err)
	}
	return nil
}

// Disconnect tears the connection down.
func (t *PahoTransport) Disconnect(quiesce time.Duration) {
	if t.client != nil && t.client.IsConnectionOpen() {
		t.client.Disconnect(uint(quiesce.Milliseconds()))
	}
}

// Publish sends one message at QoS 1 and waits for the broker ack.
func (t *PahoTransport) Publish(ctx context.Context, topic string, payload []byte) error {
	if t.client == nil {
		return ErrNotConnected
	}
	return waitToken(ctx, t.client.Publish(topic, qosAtLeastOnce, false, payload))
}

// Subscribe registers a topic filter at QoS 1. Messages arrive through the
// default publish handler installed by HandleMessage.
func (t *PahoTransport) Subscribe(ctx context.Context, filter string) error {
	if t.client == nil {
		return ErrNotConnected
	}
	return waitToken(ctx, t.client.Subscribe(filter, qosAtLeastOnce, nil))
}

// waitToken blocks until the paho token resolves or ctx expires.
func waitToken(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		return token.Error()
	}
}

// classifyConnectError separates credential/protocol refusals, which cannot
// succeed on retry, from transient network failures.
func classifyConnectError(err error) error {
	switch {
	case errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised),
		errors.Is(err, packets.ErrorRefusedIDRejected),
		errors.Is(err, packets.ErrorRefusedBadProtocolVersion):
		return &FatalError{Err: err}
	default:
		return err
	}
}
