package messaging

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
var ErrUnsupported = errors.New("pkgmessage: unsupported operation")

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination subject.
type Publisher interface {
	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source subject.
type Consumer interface {
	// Consume blocks, dispatching messages to handler until ctx is done.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
//
// Returning a non-nil error does not imply any particular broker behavior.
// With auto-ack enabled the message is nacked where the broker supports it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	// Key is the header name.
	Key string
	// Value is the header value.
	Value []byte
}

// HeaderValue returns the first header value matching key, case-insensitively.
func HeaderValue(headers []Header, key string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return string(h.Value)
		}
	}
	return ""
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// Topic is the subject used for publishing.
	Topic string
	// Delivered is the number of local subscribers reached (in-memory backend only).
	Delivered int
	// Timestamp is when the broker accepted the message.
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Headers returns message headers.
	Headers() []Header
	// Subject returns the subject name.
	Subject() string
	// Timestamp returns when the message was received.
	Timestamp() time.Time

	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
}

// Nackable can request a message redelivery.
type Nackable interface {
	// Nack requests a message redelivery.
	Nack(ctx context.Context) error
}
