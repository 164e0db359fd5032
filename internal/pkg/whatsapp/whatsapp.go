package whatsapp

import (
	"context"
	"errors"
)

var (
	// ErrAPIKeyRequired is returned when no relay API key is configured.
	ErrAPIKeyRequired = errors.New("whatsapp: api key is required")
	// ErrPhoneRequired is returned when the message has no destination.
	ErrPhoneRequired = errors.New("whatsapp: phone is required")
	// ErrUnexpectedStatus is returned when the relay answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("whatsapp: unexpected status")
)

// Message is a single text message to one phone number.
type Message struct {
	// Phone is the destination in international format; a leading "+" is allowed.
	Phone string
	// Text is the message body.
	Text string
}

// Sender delivers WhatsApp messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
