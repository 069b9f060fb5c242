// Package listener registers a hotkeys.Binding with the operating system and
// delivers its key events. It is the only package that loads
// golang.design/x/hotkey, which needs a display server on Linux.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gopherlol-shell/internal/hotkeys"
	"gopherlol-shell/internal/workerutil"

	"golang.design/x/hotkey"
)

const stopTimeout = 2 * time.Second

// registration is the subset of *hotkey.Hotkey the manager depends on.
type registration interface {
	Register() error
	Unregister() error
	Keydown() <-chan hotkey.Event
	Keyup() <-chan hotkey.Event
}

// newRegistrationFn is a test seam; tests replace it with a fake that never
// touches the OS.
var newRegistrationFn = func(mods []hotkey.Modifier, key hotkey.Key) registration {
	return hotkey.New(mods, key)
}

// listenerRecovery bounds restarts of a listener whose handler panics.
// IsShutdown, OnPanic and OnFatal are filled in per registration.
var listenerRecovery = workerutil.RecoveryOptions{
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
	MaxRetries:     5,
}

var platformKeys = map[hotkeys.Key]hotkey.Key{
	hotkeys.KeySpace: hotkey.KeySpace,
}

// activeHotkey holds the state of a single active registration.
// When non-nil in Manager, the listener goroutine is tracked by wg.
type activeHotkey struct {
	reg      registration
	binding  hotkeys.Binding
	cancel   context.CancelFunc
	stopping atomic.Bool
	wg       sync.WaitGroup
}

// Manager manages one global shortcut registration.
type Manager struct {
	mu     sync.Mutex
	active *activeHotkey // nil when no shortcut is registered
}

// NewManager creates a new shortcut manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start registers binding with the OS and delivers its key events to handler.
// handler runs on the listener goroutine, one event at a time, in the order
// the OS emits them. Any previous registration is released first.
func (m *Manager) Start(ctx context.Context, binding hotkeys.Binding, handler func(hotkeys.State)) error {
	if handler == nil {
		return errors.New("shortcut handler is required")
	}
	if binding.IsZero() {
		return errors.New("shortcut binding is required")
	}
	key, ok := platformKeys[binding.Key()]
	if !ok {
		return fmt.Errorf("key %s has no platform key code", binding.Key())
	}
	mods := platformModifiers[binding.Modifier()]

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stopLocked(); err != nil {
		return err
	}

	reg := newRegistrationFn(mods, key)
	if err := reg.Register(); err != nil {
		return fmt.Errorf("register shortcut %q failed: %w", binding.Normalized(), err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	ah := &activeHotkey{
		reg:     reg,
		binding: binding,
		cancel:  cancel,
	}
	workerutil.RunWithPanicRecovery(loopCtx, "hotkey-listener", &ah.wg, func(ctx context.Context) {
		listen(ctx, reg, handler)
	}, ah.recoveryOptions())

	m.active = ah
	slog.Info("[hotkey] shortcut registered", "binding", binding.Normalized())
	return nil
}

func (ah *activeHotkey) recoveryOptions() workerutil.RecoveryOptions {
	opts := listenerRecovery
	opts.IsShutdown = ah.stopping.Load
	opts.OnPanic = func(_ string, attempt int) {
		slog.Warn("[hotkey] shortcut handler panicked, restarting listener",
			"binding", ah.binding.Normalized(), "attempt", attempt)
	}
	opts.OnFatal = func(_ string, maxRetries int) {
		slog.Error("[hotkey] shortcut listener gave up, the shortcut no longer responds",
			"binding", ah.binding.Normalized(), "panics", maxRetries)
	}
	return opts
}

// Stop unregisters the active shortcut. Calling Stop when idle is a no-op.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// ActiveBinding returns the normalized binding string for the active shortcut.
func (m *Manager) ActiveBinding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.binding.Normalized()
}

func (m *Manager) stopLocked() error {
	if m.active == nil {
		return nil
	}
	ah := m.active
	m.active = nil

	ah.stopping.Store(true)
	ah.cancel()

	done := make(chan struct{})
	go func() {
		ah.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()

	var stopErr error
	select {
	case <-done:
	case <-timer.C:
		slog.Warn("[hotkey] listener stop timed out, goroutine may leak",
			"binding", ah.binding.Normalized())
		stopErr = fmt.Errorf("shortcut listener stop timed out (%s)", ah.binding.Normalized())
	}

	if err := ah.reg.Unregister(); err != nil {
		stopErr = errors.Join(stopErr, fmt.Errorf("unregister shortcut %q: %w", ah.binding.Normalized(), err))
	}
	return stopErr
}

func listen(ctx context.Context, reg registration, handler func(hotkeys.State)) {
	keydown := reg.Keydown()
	keyup := reg.Keyup()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			handler(hotkeys.StatePressed)
		case _, ok := <-keyup:
			if !ok {
				return
			}
			handler(hotkeys.StateReleased)
		}
	}
}
