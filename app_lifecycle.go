package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopherlol-shell/internal/config"
	"gopherlol-shell/internal/hotkeys"
	"gopherlol-shell/internal/launcher"
	"gopherlol-shell/internal/visibility"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

type appRuntimeLogger interface {
	Warningf(context.Context, string, ...interface{})
	Infof(context.Context, string, ...interface{})
	Errorf(context.Context, string, ...interface{})
}

// wailsRuntimeLogger routes through the Wails logger once the runtime context
// exists and through slog before that.
type wailsRuntimeLogger struct{}

func formatRuntimeLogMessage(message string, args ...interface{}) string {
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func (wailsRuntimeLogger) Warningf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Warn(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogWarningf(ctx, message, args...)
}

func (wailsRuntimeLogger) Infof(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Info(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogInfof(ctx, message, args...)
}

func (wailsRuntimeLogger) Errorf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Error(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogErrorf(ctx, message, args...)
}

var (
	runtimeEventsEmitFn                            = runtime.EventsEmit
	runtimeEventsOnFn                              = runtime.EventsOn
	runtimeQuitFn                                  = runtime.Quit
	runtimeLogger                 appRuntimeLogger = wailsRuntimeLogger{}
	runtimeWindowHideFn                            = runtime.WindowHide
	runtimeWindowShowFn                            = runtime.WindowShow
	runtimeWindowUnminimiseFn                      = runtime.WindowUnminimise
	runtimeWindowSetAlwaysOnTopFn                  = runtime.WindowSetAlwaysOnTop
	getwdFn                                        = os.Getwd
)

const shutdownWaitTimeout = 10 * time.Second

func (a *App) startup(ctx context.Context) {
	a.setRuntimeContext(ctx)
	a.launchDir = resolveLaunchDir(ctx)

	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancel = cancel

	a.window.Store(visibility.NewController(
		newWailsWindow(ctx, a.cfg.Window.AlwaysOnTop),
		visibility.Shown,
		visibility.Options{HideOnFocusLoss: a.cfg.HideOnBlur},
	))
	a.offFocusEvents = runtimeEventsOnFn(ctx, eventWindowFocusChanged, a.handleFocusEvent)

	// Without the shortcut the shell cannot be summoned, so registration
	// failure ends the run before the server is spawned.
	if err := a.configureGlobalShortcut(bgCtx); err != nil {
		a.setFatalError(err)
		runtimeLogger.Errorf(ctx, "global shortcut registration failed: %v", err)
		runtimeQuitFn(ctx)
		return
	}
	a.startServer(bgCtx)
}

func resolveLaunchDir(logCtx context.Context) string {
	dir, err := getwdFn()
	if err == nil {
		return dir
	}
	runtimeLogger.Warningf(logCtx, "failed to resolve working directory: %v", err)
	if exePath, exeErr := os.Executable(); exeErr == nil {
		return filepath.Dir(exePath)
	}
	return "."
}

func (a *App) configureGlobalShortcut(ctx context.Context) error {
	controller, err := a.requireWindow()
	if err != nil {
		return err
	}
	spec := config.ResolveShortcutSpec(a.cfg, a.lookupEnv)
	binding, _ := hotkeys.Resolve(spec, a.goos)
	if err := a.hotkeys.Start(ctx, binding, controller.HandleShortcut); err != nil {
		return err
	}
	runtimeLogger.Infof(a.runtimeContext(), "global shortcut registered: %s", binding.Normalized())
	return nil
}

func (a *App) startServer(ctx context.Context) {
	if !a.cfg.Server.Enabled {
		slog.Info("[server] launch disabled by config")
		return
	}
	server := launcher.New(launcher.Options{
		Command:  a.cfg.Server.Command,
		Args:     a.cfg.Server.Args,
		Dir:      a.cfg.Server.ResolveDir(a.launchDir),
		OnStatus: a.emitServerStatus,
	})
	a.server.Store(server)
	if err := server.Start(ctx, &a.bgWG); err != nil {
		runtimeLogger.Warningf(a.runtimeContext(), "server launch skipped: %v", err)
	}
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)
	logCtx := a.runtimeContext()

	if a.offFocusEvents != nil {
		a.offFocusEvents()
		a.offFocusEvents = nil
	}
	if a.hotkeys != nil {
		if err := a.hotkeys.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "hotkeys stop failed: %v", err)
		}
	}
	if a.bgCancel != nil {
		a.bgCancel()
		a.bgCancel = nil
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		runtimeLogger.Warningf(logCtx, "timed out waiting for background workers during shutdown")
	}
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// The waiting goroutine may outlive timeout when waitFn blocks
	// indefinitely; only used on shutdown where completion is expected.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
