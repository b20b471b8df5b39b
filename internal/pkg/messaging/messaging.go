package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("messaging: client closed")
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic (NATS subject, Kafka topic).
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic. Consume blocks until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto-ack enabled a nil error
// acks the message and a non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Key is used by Kafka for partitioning.
	Key []byte
	// Body is the message payload.
	Body []byte
	// Headers are string metadata such as the correlation ID.
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Header(key string) string
	Topic() string
	Timestamp() time.Time

	// Ack confirms processing (commit for Kafka).
	Ack(ctx context.Context) error
	// Nack asks for redelivery where the broker supports it.
	Nack(ctx context.Context) error
}

type message struct {
	body    []byte
	key     []byte
	headers map[string]string
	topic   string
	ts      time.Time
	ack     func(context.Context) error
	nack    func(context.Context) error
}

func (m *message) Body() []byte             { return m.body }
func (m *message) Key() []byte              { return m.key }
func (m *message) Header(key string) string { return m.headers[key] }
func (m *message) Topic() string            { return m.topic }
func (m *message) Timestamp() time.Time     { return m.ts }

func (m *message) Ack(ctx context.Context) error {
	if m.ack == nil {
		return nil
	}
	return m.ack(ctx)
}

func (m *message) Nack(ctx context.Context) error {
	if m.nack == nil {
		return nil
	}
	return m.nack(ctx)
}

func settle(ctx context.Context, msg Message, autoAck bool, handlerErr error) {
	if !autoAck {
		return
	}

	var err error
	if handlerErr == nil {
		err = msg.Ack(ctx)
	} else {
		err = msg.Nack(ctx)
	}
	if err != nil {
		logSettleError(ctx, msg.Topic(), err)
	}
}
