package messaging

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(context.Context, Message) error { return nil }

func TestKafka_Guards(t *testing.T) {
	ctx := context.Background()
	k, err := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	assert.ErrorIs(t, k.Consume(ctx, "", noopHandler), ErrKafkaTopicRequired)
	assert.ErrorIs(t, k.Consume(ctx, "safex.mfa.audit", nil), ErrKafkaHandlerRequired)
	assert.ErrorIs(t, k.Consume(ctx, "safex.mfa.audit", noopHandler), ErrKafkaGroupRequired)

	_, err = k.Publish(ctx, "", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrKafkaTopicRequired)

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())

	_, err = k.Publish(ctx, "safex.mfa.audit", OutgoingMessage{Body: []byte("{}")})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.ErrorIs(t, k.Consume(ctx, "safex.mfa.audit", noopHandler, WithQueueGroup("g")), io.ErrClosedPipe)
}

func TestNSQ_Guards(t *testing.T) {
	ctx := context.Background()
	n, err := NewNSQ(NSQConfig{})
	require.NoError(t, err)

	_, err = n.Publish(ctx, "safex.mfa.audit", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrNSQProducerAddrRequired)
	assert.ErrorIs(t, n.Consume(ctx, "safex.mfa.audit", noopHandler), ErrNSQConsumerAddrsRequired)

	n.cfg.NSQDAddrs = []string{"localhost:4150"}
	assert.ErrorIs(t, n.Consume(ctx, "safex.mfa.audit", noopHandler), ErrNSQChannelRequired)

	require.NoError(t, n.Close())
	assert.ErrorIs(t, n.Consume(ctx, "safex.mfa.audit", noopHandler, WithQueueGroup("g")), io.ErrClosedPipe)
}
