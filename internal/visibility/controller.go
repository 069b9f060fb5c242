// Package visibility owns the shown/hidden state of the primary window and
// the rules that change it.
package visibility

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"gopherlol-shell/internal/hotkeys"
)

// ErrNoWindow is returned by Hide when there is no primary window.
var ErrNoWindow = errors.New("primary window is unavailable")

// State is the visibility of the primary window.
type State int32

const (
	Hidden State = iota
	Shown
)

func (s State) String() string {
	if s == Shown {
		return "shown"
	}
	return "hidden"
}

// Window is the windowing layer the controller drives.
type Window interface {
	Show() error
	Hide() error
	Focus() error
}

// Options are capability flags for the controller.
type Options struct {
	// HideOnFocusLoss hides the window when it loses input focus.
	HideOnFocusLoss bool
}

// Controller is the only component allowed to change window visibility.
// Transitions are serialized; window-layer failures are logged and swallowed.
type Controller struct {
	mu    sync.Mutex // held for a whole transition, including window calls
	win   Window
	opts  Options
	state atomic.Int32
}

// NewController creates a controller starting in initial, which should be
// what the windowing layer reports at startup.
func NewController(win Window, initial State, opts Options) *Controller {
	c := &Controller{win: win, opts: opts}
	c.state.Store(int32(initial))
	return c
}

// State returns the current visibility.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// HandleFocus processes a focus-change event from the windowing layer.
func (c *Controller) HandleFocus(focused bool) {
	if focused || !c.opts.HideOnFocusLoss {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil || c.State() == Hidden {
		return
	}
	c.call("hide", c.win.Hide)
	c.state.Store(int32(Hidden))
}

// HandleShortcut processes a global shortcut event. Only a press shows and
// focuses the window; releases are ignored.
func (c *Controller) HandleShortcut(st hotkeys.State) {
	if st != hotkeys.StatePressed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		slog.Warn("[window] shortcut ignored: no primary window")
		return
	}
	c.call("show", c.win.Show)
	c.call("focus", c.win.Focus)
	c.state.Store(int32(Shown))
}

// Hide hides the window unconditionally.
func (c *Controller) Hide() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return ErrNoWindow
	}
	c.call("hide", c.win.Hide)
	c.state.Store(int32(Hidden))
	return nil
}

func (c *Controller) call(op string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("[window] window operation failed", "op", op, "error", err)
	}
}
