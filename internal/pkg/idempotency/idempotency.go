// Package idempotency deduplicates operations that carry a caller supplied
// key, such as POST /send-otp with an Idempotency-Key header.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is the recorded outcome of a keyed operation.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string { return string(s) }

// err maps a previously recorded state to the error Exec reports for it.
func (s State) err() error {
	switch s {
	case StateNone:
		return nil
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	default:
		return ErrInvalidState
	}
}

type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// acquireScript sets KEYS[1] to in_progress when absent and returns "",
// otherwise it returns the stored state.
var acquireScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	return current
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return ""
`)

// StateTracker keeps operation state in redis.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker storing keys under prefix (default "idempotency:").
func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &StateTracker{client: client, prefix: prefix}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress marker survives a crashed caller.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the final outcome is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func (s *StateTracker) key(k string) string { return s.prefix + k }

// Acquire atomically claims key. StateNone means the caller owns the operation.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	if lockDuration <= 0 {
		lockDuration = defaultLockDuration
	}

	current, err := acquireScript.Run(ctx, s.client,
		[]string{s.key(key)}, StateInProgress.String(), lockDuration.Milliseconds(),
	).Text()
	if err != nil {
		return StateError, err
	}

	switch State(current) {
	case "":
		return StateNone, nil
	case StateInProgress, StateCompleted, StateFailed:
		return State(current), nil
	default:
		return StateError, ErrInvalidState
	}
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), StateFailed.String(), ttl).Err()
}

// Exec runs fn at most once per key and records its outcome for the state TTL.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	if err := state.err(); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		var rel *releaseError
		if errors.As(err, &rel) {
			if errDel := s.client.Del(ctx, s.key(key)).Err(); errDel != nil {
				return errors.Join(rel.err, errDel)
			}
			return rel.err
		}
		return errors.Join(err, s.MarkFailed(ctx, key, o.stateTTL))
	}
	return s.MarkCompleted(ctx, key, o.stateTTL)
}

// Release wraps an error returned from an Exec function so the key is freed
// instead of recorded as failed. A retry with the same key runs again.
func Release(err error) error {
	if err == nil {
		return nil
	}
	return &releaseError{err: err}
}

type releaseError struct{ err error }

func (e *releaseError) Error() string { return e.err.Error() }

func (e *releaseError) Unwrap() error { return e.err }

func unwrapRelease(err error) error {
	var rel *releaseError
	if errors.As(err, &rel) {
		return rel.err
	}
	return err
}
