package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/safex/internal/pkg/stacktrace"
)

// ErrHandlerPanic wraps a recovered handler panic so auto-ack reports it as a failure.
var ErrHandlerPanic = errors.New("pkgmessage: handler panicked")

// safeHandle runs h and turns a panic into ErrHandlerPanic.
func safeHandle(ctx context.Context, broker string, h Handler, msg Message) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		raw := debug.Stack()
		var stack any = string(raw)
		if paths := stacktrace.InternalPaths(raw); len(paths) > 0 {
			stack = paths
		}
		slog.ErrorContext(ctx, "messaging handler panicked", "broker", broker, "subject", msg.Subject(), "panic", rvr, "stack", stack)

		err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, broker, rvr)
	}()

	return h(ctx, msg)
}

// autoAck acks a handled message and nacks a failed one when the backend supports it.
func autoAck(ctx context.Context, msg Message, handlerErr error) error {
	if handlerErr == nil {
		return msg.Ack(ctx)
	}
	if n, ok := msg.(Nackable); ok {
		return n.Nack(ctx)
	}
	return nil
}
