package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gopherlol-shell/internal/launcher"

	"github.com/pkg/browser"
)

// searchHideDelay lets the browser take focus before the shell hides.
const searchHideDelay = 100 * time.Millisecond

var (
	browserOpenURLFn = browser.OpenURL
	afterFuncFn      = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
)

// OpenURL opens rawURL in the user's default browser.
// The URL is passed through unvalidated.
func (a *App) OpenURL(rawURL string) error {
	if err := browserOpenURLFn(rawURL); err != nil {
		slog.Warn("[bridge] open url failed", "url", rawURL, "error", err)
		return fmt.Errorf("open failed: %w", err)
	}
	return nil
}

// HideWindow hides the primary window. It fails only when there is no window.
func (a *App) HideWindow() error {
	controller, err := a.requireWindow()
	if err != nil {
		return err
	}
	return controller.Hide()
}

// Search sends query to the gopherlol server in the default browser and then
// hides the window. A blank query is a no-op; otherwise query is sent as typed.
func (a *App) Search(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	target, err := buildSearchURL(a.cfg.SearchURL, query)
	if err != nil {
		return err
	}
	if err := a.OpenURL(target); err != nil {
		return err
	}
	afterFuncFn(searchHideDelay, func() {
		if err := a.HideWindow(); err != nil {
			slog.Warn("[bridge] hide after search failed", "error", err)
		}
	})
	return nil
}

// ServerStatus reports the auxiliary server lifecycle. It is idle when the
// launcher is disabled or has not been started.
func (a *App) ServerStatus() launcher.Status {
	server := a.server.Load()
	if server == nil {
		return launcher.Status{State: launcher.StateIdle}
	}
	return server.Status()
}

// ActiveShortcut returns the normalized registered shortcut, or "" before
// registration.
func (a *App) ActiveShortcut() string {
	if a.hotkeys == nil {
		return ""
	}
	return a.hotkeys.ActiveBinding()
}

func buildSearchURL(base string, query string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %q: %w", base, err)
	}
	values := u.Query()
	values.Set("q", query)
	u.RawQuery = values.Encode()
	return u.String(), nil
}
