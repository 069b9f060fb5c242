package main

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"gopherlol-shell/internal/config"
	"gopherlol-shell/internal/hotkeys"
	"gopherlol-shell/internal/hotkeys/listener"
	"gopherlol-shell/internal/launcher"
	"gopherlol-shell/internal/visibility"
)

// shortcutRegistrar is the slice of listener.Manager the app depends on.
type shortcutRegistrar interface {
	Start(ctx context.Context, binding hotkeys.Binding, handler func(hotkeys.State)) error
	Stop() error
	ActiveBinding() string
}

// App is the Wails-bound application service.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// cfg is read-only after NewApp.
	cfg config.Config
	// launchDir is the working directory captured at startup. Read-only after
	// startup() returns.
	launchDir string
	goos      string
	lookupEnv func(string) (string, bool)

	// Backend services. window and server are published once by startup and
	// read by bound methods on other goroutines.
	hotkeys shortcutRegistrar
	window  atomic.Pointer[visibility.Controller]
	server  atomic.Pointer[launcher.Launcher]

	offFocusEvents func()

	fatalMu  sync.Mutex
	fatalErr error

	// Background worker cancellation/waits.
	bgCancel     context.CancelFunc
	bgWG         sync.WaitGroup
	shuttingDown atomic.Bool
}

// NewApp creates the app service for cfg.
func NewApp(cfg config.Config) *App {
	return &App{
		cfg:       config.Clone(cfg),
		goos:      runtime.GOOS,
		lookupEnv: os.LookupEnv,
		hotkeys:   listener.NewManager(),
	}
}

func (a *App) setRuntimeContext(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

func (a *App) runtimeContext() context.Context {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	return ctx
}

func (a *App) requireWindow() (*visibility.Controller, error) {
	controller := a.window.Load()
	if controller == nil {
		return nil, visibility.ErrNoWindow
	}
	return controller, nil
}

func (a *App) setFatalError(err error) {
	a.fatalMu.Lock()
	a.fatalErr = errors.Join(a.fatalErr, err)
	a.fatalMu.Unlock()
}

// fatalError reports the startup failure that made the shell quit, if any.
// main reads it after wails.Run returns.
func (a *App) fatalError() error {
	a.fatalMu.Lock()
	defer a.fatalMu.Unlock()
	return a.fatalErr
}
