package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	ErrNSQTopicRequired         = errors.New("pkgmessage: nsq topic is required")
	ErrNSQChannelRequired       = errors.New("pkgmessage: nsq channel is required")
	ErrNSQHandlerRequired       = errors.New("pkgmessage: nsq handler is required")
	ErrNSQProducerAddrRequired  = errors.New("pkgmessage: nsq producer address is required")
	ErrNSQConsumerAddrsRequired = errors.New("pkgmessage: nsq consumer nsqd/lookupd addresses are required")
)

// NSQConfig configures the NSQ backend. Lookupd addresses win over direct
// nsqd addresses for consumers.
type NSQConfig struct {
	ProducerAddr string
	NSQDAddrs    []string
	LookupdAddrs []string
}

// NSQ publishes to nsqd and consumes topic channels; the queue group is the
// NSQ channel. NSQ messages carry no headers.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	consumers map[*nsq.Consumer]struct{}
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	n := &NSQ{cfg: cfg, consumers: make(map[*nsq.Consumer]struct{})}

	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("pkgmessage: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

// Close stops every consumer, waiting for in-flight handlers, then the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNSQTopicRequired
	}
	if n.producer == nil {
		return PublishResult{}, ErrNSQProducerAddrRequired
	}

	if err := n.producer.Publish(destination, msg.Body); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: nsq publish: %w", err)
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Consume runs handler on the queue group channel of source until ctx is done.
func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNSQTopicRequired
	}
	if handler == nil {
		return ErrNSQHandlerRequired
	}
	if len(n.cfg.NSQDAddrs) == 0 && len(n.cfg.LookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	co := newConsumeOptions(opts...)
	if co.queueGroup == "" {
		return ErrNSQChannelRequired
	}
	workers := concurrencyOrDefault(co.concurrency, 1)

	ccfg := nsq.NewConfig()
	ccfg.MaxInFlight = max(workers, concurrencyOrDefault(co.buffer, workers))

	consumer, err := nsq.NewConsumer(source, co.queueGroup, ccfg)
	if err != nil {
		return fmt.Errorf("pkgmessage: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsqHandler(ctx, source, handler, co.autoAck), workers)

	if err := n.track(consumer); err != nil {
		consumer.Stop()
		return err
	}
	defer n.untrack(consumer)

	if err := n.connect(consumer); err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return err
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func (n *NSQ) connect(c *nsq.Consumer) error {
	if len(n.cfg.LookupdAddrs) > 0 {
		if err := c.ConnectToNSQLookupds(n.cfg.LookupdAddrs); err != nil {
			return fmt.Errorf("pkgmessage: nsq connect lookupd: %w", err)
		}
		return nil
	}
	if err := c.ConnectToNSQDs(n.cfg.NSQDAddrs); err != nil {
		return fmt.Errorf("pkgmessage: nsq connect nsqd: %w", err)
	}
	return nil
}

func (n *NSQ) track(c *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	n.consumers[c] = struct{}{}
	return nil
}

func (n *NSQ) untrack(c *nsq.Consumer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.consumers, c)
}

func nsqHandler(ctx context.Context, topic string, handler Handler, ack bool) nsq.HandlerFunc {
	return func(m *nsq.Message) error {
		m.DisableAutoResponse()

		msg := &nsqMessage{topic: topic, msg: m}
		herr := safeHandle(ctx, "nsq", handler, msg)
		if !ack || msg.responded.Load() {
			return nil
		}
		return autoAck(ctx, msg, herr)
	}
}

type nsqMessage struct {
	topic     string
	msg       *nsq.Message
	responded atomic.Bool
}

func (m *nsqMessage) Body() []byte         { return m.msg.Body }
func (m *nsqMessage) Headers() []Header    { return nil }
func (m *nsqMessage) Subject() string      { return m.topic }
func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }

func (m *nsqMessage) Ack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Finish)
}

// Nack requeues with nsq's default backoff.
func (m *nsqMessage) Nack(ctx context.Context) error {
	return m.respond(ctx, func() { m.msg.Requeue(-1) })
}

func (m *nsqMessage) respond(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.responded.Swap(true) {
		fn()
	}
	return nil
}
