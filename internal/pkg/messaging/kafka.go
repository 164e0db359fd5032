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

	"github.com/segmentio/kafka-go"
)

var (
	ErrKafkaTopicRequired   = errors.New("pkgmessage: kafka topic is required")
	ErrKafkaHandlerRequired = errors.New("pkgmessage: kafka handler is required")
	ErrKafkaBrokersRequired = errors.New("pkgmessage: kafka brokers are required")
	ErrKafkaGroupRequired   = errors.New("pkgmessage: kafka consumer group is required")
)

// KafkaConfig configures the Kafka backend.
type KafkaConfig struct {
	Brokers []string
	// Dialer is optional; kafka-go's default dialer is used when nil.
	Dialer *kafka.Dialer
}

// Kafka publishes to and consumes from Kafka topics. The queue group of a
// consumer is its Kafka consumer group; acking commits the offset.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	cfg.Brokers = append([]string(nil), cfg.Brokers...)

	return &Kafka{
		cfg:     cfg,
		writers: make(map[string]*kafka.Writer),
		readers: make(map[*kafka.Reader]struct{}),
	}, nil
}

// Close closes every reader and writer opened so far.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers, readers := k.writers, k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var errs []error
	for r := range readers {
		errs = append(errs, r.Close())
	}
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, io.ErrClosedPipe
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if k.cfg.Dialer != nil {
		w.Transport = &kafka.Transport{TLS: k.cfg.Dialer.TLS, SASL: k.cfg.Dialer.SASLMechanism}
	}
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}

	w, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	out := kafka.Message{Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Headers = append(out.Headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
	}

	if err := w.WriteMessages(ctx, out); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: out.Time}, nil
}

// Consume reads source as part of the queue group until ctx is done. A
// fetch error other than cancellation stops the consumer and is returned.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrKafkaTopicRequired
	}
	if handler == nil {
		return ErrKafkaHandlerRequired
	}

	co := newConsumeOptions(opts...)
	if co.queueGroup == "" {
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  co.queueGroup,
		Topic:    source,
		MaxBytes: 10e6,
		Dialer:   k.cfg.Dialer,
	})
	if err := k.track(reader); err != nil {
		return errors.Join(err, reader.Close())
	}
	defer k.untrack(reader)

	workers := concurrencyOrDefault(co.concurrency, 1)
	inbox := make(chan kafka.Message, concurrencyOrDefault(co.buffer, workers))

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for m := range inbox {
				k.deliver(ctx, reader, handler, m, co.autoAck)
			}
		})
	}

	var fetchErr error
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				fetchErr = fmt.Errorf("pkgmessage: kafka fetch: %w", err)
			}
			break
		}
		inbox <- m
	}

	close(inbox)
	wg.Wait()

	return errors.Join(ctx.Err(), fetchErr, reader.Close())
}

func (k *Kafka) track(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers[r] = struct{}{}
	return nil
}

func (k *Kafka) untrack(r *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.readers, r)
}

func (k *Kafka) deliver(ctx context.Context, reader *kafka.Reader, handler Handler, m kafka.Message, ack bool) {
	msg := &kafkaMessage{reader: reader, msg: m}
	herr := safeHandle(ctx, "kafka", handler, msg)
	if !ack || msg.responded.Load() {
		return
	}
	if err := autoAck(ctx, msg, herr); err != nil {
		slog.WarnContext(ctx, "kafka: failed to commit message", "topic", m.Topic, "offset", m.Offset, "error", err)
	}
}

type kafkaMessage struct {
	reader    *kafka.Reader
	msg       kafka.Message
	responded atomic.Bool
}

func (m *kafkaMessage) Body() []byte         { return m.msg.Value }
func (m *kafkaMessage) Subject() string      { return m.msg.Topic }
func (m *kafkaMessage) Timestamp() time.Time { return m.msg.Time }

func (m *kafkaMessage) Headers() []Header {
	out := make([]Header, 0, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		out = append(out, Header{Key: h.Key, Value: h.Value})
	}
	return out
}

// Ack commits the offset.
func (m *kafkaMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	return m.reader.CommitMessages(ctx, m.msg)
}

// Nack leaves the offset uncommitted so the group re-reads it after a rebalance.
func (m *kafkaMessage) Nack(context.Context) error {
	m.responded.Store(true)
	return nil
}
