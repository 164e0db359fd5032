package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSubscribed(t *testing.T, m *Memory, subject string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.subs[subject]) == n
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_PublishConsume(t *testing.T) {
	t.Run("DeliversBodyAndHeaders", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		got := make(chan Message, 1)

		done := make(chan error, 1)
		go func() {
			done <- m.Consume(ctx, "audit", func(_ context.Context, msg Message) error {
				got <- msg
				return nil
			}, WithAutoAck(true))
		}()
		waitSubscribed(t, m, "audit", 1)

		// Act
		res, err := m.Publish(ctx, "audit", OutgoingMessage{
			Body:    []byte(`{"a":1}`),
			Headers: []Header{{Key: "cID", Value: []byte("c-1")}},
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, res.Delivered)
		select {
		case msg := <-got:
			assert.Equal(t, `{"a":1}`, string(msg.Body()))
			assert.Equal(t, "c-1", HeaderValue(msg.Headers(), "cid"))
			assert.Equal(t, "audit", msg.Subject())
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("QueueGroupDeliversOnce", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		ctx, cancel := context.WithCancel(context.Background())
		var mu sync.Mutex
		count := 0
		var wg sync.WaitGroup
		for range 2 {
			wg.Go(func() {
				_ = m.Consume(ctx, "s", func(context.Context, Message) error {
					mu.Lock()
					count++
					mu.Unlock()
					return nil
				}, WithQueueGroup("g"))
			})
		}
		waitSubscribed(t, m, "s", 2)

		// Act
		for range 4 {
			res, err := m.Publish(ctx, "s", OutgoingMessage{Body: []byte("x")})
			require.NoError(t, err)
			require.Equal(t, 1, res.Delivered)
		}

		// Assert
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return count == 4
		}, time.Second, 5*time.Millisecond)
		cancel()
		wg.Wait()
	})

	t.Run("NoSubscribers", func(t *testing.T) {
		res, err := NewMemory().Publish(context.Background(), "nobody", OutgoingMessage{})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Delivered)
	})

	t.Run("HandlerPanicIsRecovered", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		calls := make(chan struct{}, 2)
		go func() {
			_ = m.Consume(ctx, "p", func(context.Context, Message) error {
				calls <- struct{}{}
				panic("handler")
			})
		}()
		waitSubscribed(t, m, "p", 1)

		// Act
		_, err1 := m.Publish(ctx, "p", OutgoingMessage{})
		_, err2 := m.Publish(ctx, "p", OutgoingMessage{})

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		for range 2 {
			select {
			case <-calls:
			case <-time.After(time.Second):
				t.Fatal("consumer stopped after panic")
			}
		}
	})

	t.Run("Closed", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Close())

		_, err := m.Publish(context.Background(), "x", OutgoingMessage{})
		assert.Error(t, err)

		err = m.Consume(context.Background(), "x", func(context.Context, Message) error { return nil })
		assert.Error(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		m := NewMemory()

		_, err := m.Publish(context.Background(), "", OutgoingMessage{})
		assert.ErrorIs(t, err, ErrMemorySubjectRequired)

		err = m.Consume(context.Background(), "x", nil)
		assert.ErrorIs(t, err, ErrMemoryHandlerRequired)
	})
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver("", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver("rabbitmq", FactoryOptions{})
	assert.True(t, errors.Is(err, ErrUnknownDriver))

	_, err = NewFromDriver("kafka", FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	m, err = NewFromDriver(" NSQ ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &NSQ{}, m)

	_, err = NewFromDriver("nats", FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)
}
