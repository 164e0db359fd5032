package messaging

type consumeOptions struct {
	// concurrency is the number of handler goroutines.
	concurrency int

	// autoAck acks (or nacks on error) after the handler returns.
	autoAck bool

	// queueGroup load-balances a subject across consumers sharing the name.
	queueGroup string

	// buffer is the pending message capacity per consumer.
	buffer int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	var co consumeOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&co)
	}
	return co
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithQueueGroup sets the queue group name.
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(o *consumeOptions) { o.queueGroup = queueGroup }
}

// WithAutoAck controls whether the wrapper should ack/nack automatically after the handler returns.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithBuffer sets how many messages may wait for a free handler.
func WithBuffer(n int) ConsumeOption {
	return func(o *consumeOptions) { o.buffer = n }
}

func concurrencyOrDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
