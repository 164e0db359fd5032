package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeHandle(t *testing.T) {
	msg := &memoryMessage{subject: "safex.mfa.audit"}

	t.Run("ReturnsHandlerError", func(t *testing.T) {
		boom := errors.New("boom")

		err := safeHandle(context.Background(), "memory", func(context.Context, Message) error { return boom }, msg)

		assert.ErrorIs(t, err, boom)
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		err := safeHandle(context.Background(), "memory", func(context.Context, Message) error { panic("bad payload") }, msg)

		assert.ErrorIs(t, err, ErrHandlerPanic)
		assert.Contains(t, err.Error(), "bad payload")
	})
}
