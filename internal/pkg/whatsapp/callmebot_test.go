package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32, chan *http.Request) {
	t.Helper()

	var calls atomic.Int32
	reqs := make(chan *http.Request, len(statuses)+1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		reqs <- r
		status := http.StatusOK
		if n < len(statuses) {
			status = statuses[n]
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls, reqs
}

func TestCallMeBot_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		srv, calls, reqs := newRelay(t, http.StatusOK)
		c := NewCallMeBot(CallMeBotConfig{BaseURL: srv.URL, APIKey: "k-1"})

		// Act
		err := c.Send(context.Background(), Message{Phone: "+6281234", Text: "Code: 123456"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
		r := <-reqs
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "6281234", r.URL.Query().Get("phone"))
		assert.Equal(t, "Code: 123456", r.URL.Query().Get("text"))
		assert.Equal(t, "k-1", r.URL.Query().Get("apikey"))
		assert.Equal(t, "SafeX-2FA-Bot/1.0", r.UserAgent())
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		// Arrange
		srv, calls, _ := newRelay(t, http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK)
		c := NewCallMeBot(CallMeBotConfig{BaseURL: srv.URL, APIKey: "k", MaxRetries: 3, Backoff: time.Millisecond})

		// Act
		err := c.Send(context.Background(), Message{Phone: "1", Text: "x"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		// Arrange
		srv, calls, _ := newRelay(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
		c := NewCallMeBot(CallMeBotConfig{BaseURL: srv.URL, APIKey: "k", MaxRetries: 1, Backoff: time.Millisecond})

		// Act
		err := c.Send(context.Background(), Message{Phone: "1", Text: "x"})

		// Assert
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("ClientErrorNotRetried", func(t *testing.T) {
		// Arrange
		srv, calls, _ := newRelay(t, http.StatusBadRequest)
		c := NewCallMeBot(CallMeBotConfig{BaseURL: srv.URL, APIKey: "k", MaxRetries: 3, Backoff: time.Millisecond})

		// Act
		err := c.Send(context.Background(), Message{Phone: "1", Text: "x"})

		// Assert
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		c := NewCallMeBot(CallMeBotConfig{})

		err := c.Send(context.Background(), Message{Phone: "1", Text: "x"})

		assert.ErrorIs(t, err, ErrAPIKeyRequired)
	})

	t.Run("MissingPhone", func(t *testing.T) {
		c := NewCallMeBot(CallMeBotConfig{APIKey: "k"})

		err := c.Send(context.Background(), Message{Phone: " + ", Text: "x"})

		assert.ErrorIs(t, err, ErrPhoneRequired)
	})

	t.Run("ContextDeadline", func(t *testing.T) {
		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)
		c := NewCallMeBot(CallMeBotConfig{BaseURL: srv.URL, APIKey: "k", MaxRetries: 5})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		// Act
		err := c.Send(ctx, Message{Phone: "1", Text: "x"})

		// Assert
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
