package main

import (
	"context"
	"fmt"
	"log/slog"

	"gopherlol-shell/internal/visibility"
)

// wailsWindow drives the primary Wails window for visibility.Controller.
// The Wails runtime exits the process on a context without a frontend, so
// every call is guarded and panics are turned into errors.
type wailsWindow struct {
	ctx         context.Context
	alwaysOnTop bool
}

func newWailsWindow(ctx context.Context, alwaysOnTop bool) *wailsWindow {
	return &wailsWindow{ctx: ctx, alwaysOnTop: alwaysOnTop}
}

func (w *wailsWindow) Show() error {
	return w.do("show", func(ctx context.Context) {
		runtimeWindowShowFn(ctx)
		runtimeWindowUnminimiseFn(ctx)
	})
}

func (w *wailsWindow) Hide() error {
	return w.do("hide", runtimeWindowHideFn)
}

// Focus raises the window above other applications. Wails v2 has no direct
// focus call; toggling always-on-top brings the window forward and gives it
// keyboard focus on all supported platforms.
func (w *wailsWindow) Focus() error {
	return w.do("focus", func(ctx context.Context) {
		runtimeWindowSetAlwaysOnTopFn(ctx, true)
		runtimeWindowSetAlwaysOnTopFn(ctx, w.alwaysOnTop)
	})
}

func (w *wailsWindow) do(op string, fn func(context.Context)) (err error) {
	if w == nil || w.ctx == nil {
		return fmt.Errorf("window %s: %w", op, visibility.ErrNoWindow)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("window %s panicked: %v", op, r)
		}
	}()
	fn(w.ctx)
	return nil
}

// handleFocusEvent receives window:focus-changed from the frontend, which
// reports window blur/focus as a single boolean.
func (a *App) handleFocusEvent(data ...interface{}) {
	if len(data) == 0 {
		slog.Warn("[window] focus event without payload")
		return
	}
	focused, ok := data[0].(bool)
	if !ok {
		slog.Warn("[window] focus event payload is not a bool", "payload", fmt.Sprintf("%T", data[0]))
		return
	}
	controller, err := a.requireWindow()
	if err != nil {
		slog.Debug("[window] focus event before window is ready", "focused", focused)
		return
	}
	controller.HandleFocus(focused)
}
