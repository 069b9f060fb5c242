// Package workerutil runs background goroutines whose panics are captured
// into the log instead of crashing the shell.
package workerutil

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxRetries     = 10
)

// RecoveryOptions configures RunWithPanicRecovery.
// Zero-value numeric fields use the defaults (100ms, 5s, 10 retries) and nil
// callbacks are no-ops. MaxRetries=1 runs the worker once without restarts.
type RecoveryOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxRetries     int

	// OnPanic is called after each recovered panic, before the backoff wait.
	// attempt is 1-based.
	OnPanic func(worker string, attempt int)

	// OnFatal is called once MaxRetries panics have been recovered.
	OnFatal func(worker string, maxRetries int)

	// IsShutdown stops the restart loop when it returns true.
	IsShutdown func() bool
}

func (opts RecoveryOptions) applyDefaults() RecoveryOptions {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		slog.Warn("[worker] MaxBackoff < InitialBackoff, using InitialBackoff as MaxBackoff",
			"initialBackoff", opts.InitialBackoff,
			"maxBackoff", opts.MaxBackoff,
		)
		opts.MaxBackoff = opts.InitialBackoff
	}
	return opts
}

// RunWithPanicRecovery launches fn in a goroutine tracked by wg. When fn
// panics it is restarted with exponential backoff until it returns normally,
// ctx is cancelled, IsShutdown reports true, or MaxRetries is exhausted.
func RunWithPanicRecovery(
	ctx context.Context,
	name string,
	wg *sync.WaitGroup,
	fn func(ctx context.Context),
	opts RecoveryOptions,
) {
	opts = opts.applyDefaults()
	wg.Go(func() {
		runRecoveryLoop(ctx, name, fn, opts)
	})
}

// Go launches a one-shot detached task tracked by wg. A panic inside fn is
// logged and reported to onPanic (may be nil); it is never re-raised and
// the task is not restarted.
func Go(ctx context.Context, name string, wg *sync.WaitGroup, fn func(ctx context.Context), onPanic func(err error)) {
	wg.Go(func() {
		if err := runOnce(ctx, name, fn); err != nil && onPanic != nil {
			onPanic(err)
		}
	})
}

// runOnce calls fn and converts a panic into an error.
func runOnce(ctx context.Context, name string, fn func(ctx context.Context)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[worker] background goroutine recovered from panic",
				"worker", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("worker %s panicked: %v", name, r)
		}
	}()
	fn(ctx)
	return nil
}

func runRecoveryLoop(
	ctx context.Context,
	name string,
	fn func(ctx context.Context),
	opts RecoveryOptions,
) {
	restartDelay := opts.InitialBackoff

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if err := runOnce(ctx, name, fn); err == nil || ctx.Err() != nil {
			return
		}

		// OnPanic is not called during shutdown: the runtime context the
		// callback usually emits through may already be gone.
		if opts.IsShutdown != nil && opts.IsShutdown() {
			slog.Info("[worker] shutdown detected, stopping restart", "worker", name)
			return
		}

		slog.Warn("[worker] restarting worker after panic",
			"worker", name,
			"restartDelay", restartDelay,
			"attempt", attempt+1,
		)
		if opts.OnPanic != nil {
			opts.OnPanic(name, attempt+1)
		}

		if attempt == opts.MaxRetries-1 {
			break
		}

		restartTimer := time.NewTimer(restartDelay)
		select {
		case <-ctx.Done():
			restartTimer.Stop()
			return
		case <-restartTimer.C:
		}
		restartDelay = nextBackoff(restartDelay, opts.MaxBackoff)
	}

	slog.Error("[worker] worker exceeded max retries, giving up",
		"worker", name,
		"maxRetries", opts.MaxRetries,
	)
	if opts.OnFatal != nil {
		opts.OnFatal(name, opts.MaxRetries)
	}
}

// nextBackoff doubles current, capped at maxBackoff and guarded against overflow.
func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	if current >= maxBackoff {
		return maxBackoff
	}
	next := current * 2
	if next > maxBackoff || next < current {
		return maxBackoff
	}
	return next
}
