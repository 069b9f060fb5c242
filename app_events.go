package main

import (
	"context"
	"log/slog"

	"gopherlol-shell/internal/applog"
	"gopherlol-shell/internal/launcher"
)

const (
	// eventWindowFocusChanged is emitted by the frontend on window blur/focus.
	eventWindowFocusChanged = "window:focus-changed"
	eventServerStatus       = "server:status"
	eventAppLog             = "app:log"
)

// emitRuntimeEvent emits via the app context and delegates to emitRuntimeEventWithContext.
func (a *App) emitRuntimeEvent(name string, payload any) {
	a.emitRuntimeEventWithContext(a.runtimeContext(), name, payload)
}

// emitRuntimeEventWithContext emits a runtime event only when ctx is non-nil
// and the app is not shutting down.
func (a *App) emitRuntimeEventWithContext(ctx context.Context, name string, payload any) {
	if a.shuttingDown.Load() {
		slog.Debug("[EVENT] runtime event dropped during shutdown", "event", name)
		return
	}
	if ctx == nil {
		slog.Warn("[EVENT] runtime event dropped because app context is nil", "event", name)
		return
	}
	runtimeEventsEmitFn(ctx, name, payload)
}

func (a *App) emitServerStatus(status launcher.Status) {
	a.emitRuntimeEvent(eventServerStatus, status)
}

// forwardLogEntry is the applog tee callback. It must not log through slog:
// that would re-enter the tee handler.
func (a *App) forwardLogEntry(entry applog.Entry) {
	ctx := a.runtimeContext()
	if ctx == nil || a.shuttingDown.Load() {
		return
	}
	runtimeEventsEmitFn(ctx, eventAppLog, entry)
}
