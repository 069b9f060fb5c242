package main

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopherlol-shell/internal/applog"
	"gopherlol-shell/internal/config"
	"gopherlol-shell/internal/singleinstance"

	"github.com/joho/godotenv"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

var dotenvLoadFn = godotenv.Load

func main() {
	os.Exit(run())
}

func run() int {
	// Two shells would fight over the global shortcut and spawn two servers.
	lock, err := singleinstance.TryLock(singleinstance.DefaultName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[DEBUG-SINGLE] another instance is already running, exiting")
		return 0
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] lock failed, proceeding without single-instance guard", "error", err)
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			slog.Warn("[DEBUG-SINGLE] lock release failed", "error", releaseErr)
		}
	}()

	configPath := config.DefaultPath()
	cfg, err := config.EnsureFile(configPath)
	if err != nil {
		// Config failures are non-fatal; run with what Load returned.
		slog.Warn("[WARN-CONFIG] failed to load config, continuing", "path", configPath, "error", err)
	}

	app := NewApp(cfg)
	closer := setupLogging(cfg, configPath, app)
	defer closer.Close()

	if cfg.LoadDotEnv {
		loadDotEnv(".env")
	}

	err = wails.Run(&options.App{
		Title:       "gopherlol",
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		Frameless:   true,
		AlwaysOnTop: cfg.Window.AlwaysOnTop,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 10, G: 16, B: 22, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []any{
			app,
		},
	})
	if err != nil {
		slog.Error("[DEBUG-SINGLE] wails run failed", "error", err)
		return 1
	}
	if fatal := app.fatalError(); fatal != nil {
		slog.Error("[DEBUG-SINGLE] exiting after fatal startup error", "error", fatal)
		return 1
	}
	return 0
}

// setupLogging installs the default slog logger. File logging failures fall
// back to console-only output.
func setupLogging(cfg config.Config, configPath string, app *App) io.Closer {
	opts := applog.Options{
		Level:      cfg.Log.SlogLevel(),
		File:       cfg.Log.ResolveFile(configPath),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		OnEntry:    app.forwardLogEntry,
		EntryLevel: slog.LevelWarn,
	}
	logger, closer, err := applog.Setup(opts)
	if err != nil {
		slog.Warn("[log] file logging unavailable, using console only", "file", opts.File, "error", err)
		opts.File = ""
		logger, closer, _ = applog.Setup(opts)
	}
	slog.SetDefault(logger)
	return closer
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) {
	err := dotenvLoadFn(path)
	switch {
	case err == nil:
		slog.Debug("[env] loaded", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("[env] no env file", "path", path)
	default:
		slog.Warn("[env] failed to load env file", "path", path, "error", err)
	}
}
