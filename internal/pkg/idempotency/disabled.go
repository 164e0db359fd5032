package idempotency

import (
	"context"
	"time"
)

// Disabled is used when no redis is configured: every operation runs.
type Disabled struct{}

// NewDisabled returns an Idempotency that never deduplicates.
func NewDisabled() Disabled {
	return Disabled{}
}

func (Disabled) Acquire(context.Context, string, time.Duration) (State, error) {
	return StateNone, nil
}

func (Disabled) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (Disabled) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (Disabled) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...Option) error {
	return unwrapRelease(fn(ctx))
}
