package mqtt

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected is the fail-fast result of publishing while the client
	// is not connected. Publishes are never queued by the client.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrPublishTimeout means the broker did not acknowledge within the
	// configured ack timeout.
	ErrPublishTimeout = errors.New("mqtt: publish not acknowledged in time")
)

// FatalError wraps errors that cannot succeed on retry (bad endpoint, refused
// credentials). The client reports them once and stops retrying.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "mqtt: fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a *FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Transport is the wire-level port the Client drives. The production
// implementation wraps a paho MQTT connection; tests substitute a fake.
type Transport interface {
	// Connect performs one blocking connection attempt.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down, waiting up to quiesce for
	// in-flight work.
	Disconnect(quiesce time.Duration)

	// Publish sends one message at QoS 1 and blocks until the broker ack or
	// ctx expiry.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a topic filter at QoS 1 on the live connection.
	Subscribe(ctx context.Context, filter string) error

	// HandleMessage installs the inbound message callback. Must be called
	// before Connect.
	HandleMessage(fn func(topic string, payload []byte))

	// HandleConnectionLost installs the unexpected-disconnect callback.
	// Must be called before Connect.
	HandleConnectionLost(fn func(err error))
}
