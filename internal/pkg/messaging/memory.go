package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrMemorySubjectRequired is returned when the subject is empty.
	ErrMemorySubjectRequired = errors.New("pkgmessage: memory subject is required")
	// ErrMemoryHandlerRequired is returned when Consume is called with a nil handler.
	ErrMemoryHandlerRequired = errors.New("pkgmessage: memory handler is required")
)

// Memory delivers messages between publishers and consumers of the same
// process. Each queue group receives a message once (round robin among its
// members); consumers without a group each receive every message. A full
// consumer buffer drops the message with a warning.
type Memory struct {
	mu     sync.Mutex
	subs   map[string][]*memorySub
	next   map[string]int
	closed bool
	done   chan struct{}
}

type memorySub struct {
	group string
	ch    chan *memoryMessage
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		subs: make(map[string][]*memorySub),
		next: make(map[string]int),
		done: make(chan struct{}),
	}
}

// Close stops every running Consume call.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish hands msg to the current subscribers of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrMemorySubjectRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	now := time.Now()
	delivered := 0
	seen := make(map[string]struct{})
	for _, sub := range m.pick(destination, seen) {
		select {
		case sub.ch <- &memoryMessage{subject: destination, body: msg.Body, headers: msg.Headers, at: now}:
			delivered++
		default:
			slog.WarnContext(ctx, "memory broker: consumer buffer full, message dropped", "subject", destination)
		}
	}

	return PublishResult{Topic: destination, Delivered: delivered, Timestamp: now}, nil
}

// pick returns one member per queue group plus every ungrouped subscriber.
func (m *Memory) pick(subject string, seen map[string]struct{}) []*memorySub {
	var out []*memorySub
	for _, sub := range m.subs[subject] {
		if sub.group == "" {
			out = append(out, sub)
			continue
		}
		if _, ok := seen[sub.group]; ok {
			continue
		}
		seen[sub.group] = struct{}{}

		members := make([]*memorySub, 0)
		for _, s := range m.subs[subject] {
			if s.group == sub.group {
				members = append(members, s)
			}
		}
		key := subject + "\x00" + sub.group
		out = append(out, members[m.next[key]%len(members)])
		m.next[key]++
	}
	return out
}

// Consume subscribes to source and blocks until ctx is done or the broker
// is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrMemorySubjectRequired
	}
	if handler == nil {
		return ErrMemoryHandlerRequired
	}

	co := newConsumeOptions(opts...)
	concurrency := concurrencyOrDefault(co.concurrency, 1)
	sub := &memorySub{
		group: co.queueGroup,
		ch:    make(chan *memoryMessage, concurrencyOrDefault(co.buffer, 64)),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], sub)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			for msg := range sub.ch {
				herr := safeHandle(ctx, "memory", handler, msg)
				if co.autoAck {
					if err := autoAck(ctx, msg, herr); err != nil {
						slog.WarnContext(ctx, "memory broker: failed to ack message", "subject", source, "error", err)
					}
				}
			}
		})
	}

	select {
	case <-ctx.Done():
	case <-m.done:
	}

	m.mu.Lock()
	subs := m.subs[source]
	for i, s := range subs {
		if s == sub {
			m.subs[source] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	close(sub.ch)
	wg.Wait()

	return ctx.Err()
}

type memoryMessage struct {
	subject string
	body    []byte
	headers []Header
	at      time.Time
}

func (m *memoryMessage) Body() []byte              { return m.body }
func (m *memoryMessage) Headers() []Header         { return m.headers }
func (m *memoryMessage) Subject() string           { return m.subject }
func (m *memoryMessage) Timestamp() time.Time      { return m.at }
func (m *memoryMessage) Ack(context.Context) error { return nil }
