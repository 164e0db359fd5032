package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	ErrNATSSubjectRequired = errors.New("pkgmessage: nats subject is required")
	ErrNATSURLRequired     = errors.New("pkgmessage: nats url is required")
	ErrNATSHandlerRequired = errors.New("pkgmessage: nats handler is required")
)

// NATSConfig configures the NATS backend.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS publishes and consumes core NATS subjects. Queue groups give
// once-per-group delivery; there is no persistence.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := append([]nats.Option{nats.Name("safex")}, cfg.Options...)
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("pkgmessage: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains every subscription and then the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if err := n.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("pkgmessage: nats drain: %w", err)
	}
	return nil
}

func (n *NATS) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}
	if n.isClosed() {
		return PublishResult{}, io.ErrClosedPipe
	}

	out := nats.NewMsg(destination)
	out.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(out); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: nats flush: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Consume subscribes to source and runs handler on the configured number of
// workers until ctx is done.
func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrNATSHandlerRequired
	}
	if n.isClosed() {
		return io.ErrClosedPipe
	}

	co := newConsumeOptions(opts...)
	workers := concurrencyOrDefault(co.concurrency, 1)
	inbox := make(chan *nats.Msg, concurrencyOrDefault(co.buffer, workers))

	sub, err := n.conn.ChanQueueSubscribe(source, co.queueGroup, inbox)
	if err != nil {
		return fmt.Errorf("pkgmessage: nats subscribe: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.Join(fmt.Errorf("pkgmessage: nats flush: %w", err), sub.Unsubscribe())
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case raw := <-inbox:
					n.deliver(ctx, source, handler, raw, co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	uerr := sub.Unsubscribe()
	wg.Wait()

	if errors.Is(uerr, nats.ErrConnectionClosed) || errors.Is(uerr, nats.ErrBadSubscription) {
		uerr = nil
	}
	return errors.Join(ctx.Err(), uerr)
}

func (n *NATS) deliver(ctx context.Context, source string, handler Handler, raw *nats.Msg, ack bool) {
	msg := &natsMessage{msg: raw, receivedAt: time.Now()}
	herr := safeHandle(ctx, "nats", handler, msg)
	if !ack || msg.responded.Load() {
		return
	}
	if err := autoAck(ctx, msg, herr); err != nil {
		slog.WarnContext(ctx, "nats: failed to ack message", "subject", source, "error", err)
	}
}

type natsMessage struct {
	msg        *nats.Msg
	receivedAt time.Time
	responded  atomic.Bool
}

func (m *natsMessage) Body() []byte         { return m.msg.Data }
func (m *natsMessage) Subject() string      { return m.msg.Subject }
func (m *natsMessage) Timestamp() time.Time { return m.receivedAt }

func (m *natsMessage) Headers() []Header {
	var out []Header
	for k, values := range m.msg.Header {
		for _, v := range values {
			out = append(out, Header{Key: k, Value: []byte(v)})
		}
	}
	return out
}

// Ack and Nack are no-ops for core subjects without a reply inbox.
func (m *natsMessage) Ack(ctx context.Context) error {
	return m.respond(ctx, func() error { return m.msg.Ack() })
}

func (m *natsMessage) Nack(ctx context.Context) error {
	return m.respond(ctx, func() error { return m.msg.Nak() })
}

func (m *natsMessage) respond(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	if err := fn(); err != nil && !errors.Is(err, nats.ErrMsgNoReply) && !errors.Is(err, nats.ErrMsgNotBound) {
		return err
	}
	return nil
}
