package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/safex/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs background work (audit publishing, the expiry sweeper) with
// a concurrency limit. Errors returned by tasks are collected and reported
// by Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f if a slot is free. When the manager is full or closed the
// task is dropped with a warning and Go reports false.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return false
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Add(1)
		g.stateMu.RUnlock()
		go g.run(pCtx, f)
		return true
	default:
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine")
		return false
	}
}

func (g *Manager) run(ctx context.Context, f func(ctx context.Context) error) {
	defer g.wg.Done()
	defer func() {
		<-g.sema

		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "goroutine canceled", "because", err)
		return
	}

	if err := f(ctx); err != nil {
		g.mu.Lock()
		g.errs = append(g.errs, err)
		g.mu.Unlock()
	}
}

// Active reports how many tasks are currently running.
func (g *Manager) Active() int {
	if g == nil {
		return 0
	}
	return len(g.sema)
}

// Wait closes the manager, blocks until all scheduled goroutines finish and
// returns any collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
