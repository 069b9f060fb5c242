package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gopherlol-shell/internal/testutil"
	"gopherlol-shell/internal/visibility"
)

func TestWailsWindowWithoutContext(t *testing.T) {
	var w *wailsWindow
	for name, op := range map[string]func() error{
		"show":  func() error { return newWailsWindow(nil, true).Show() },
		"hide":  func() error { return newWailsWindow(nil, true).Hide() },
		"focus": func() error { return newWailsWindow(nil, true).Focus() },
		"nil":   func() error { return w.Hide() },
	} {
		if err := op(); !errors.Is(err, visibility.ErrNoWindow) {
			t.Errorf("%s error = %v, want ErrNoWindow", name, err)
		}
	}
}

func TestWailsWindowFocusRestoresAlwaysOnTop(t *testing.T) {
	tests := []struct {
		name        string
		alwaysOnTop bool
		want        string
	}{
		{name: "pinned window stays on top", alwaysOnTop: true, want: "on-top=true,on-top=true"},
		{name: "normal window drops back", alwaysOnTop: false, want: "on-top=true,on-top=false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := installShellHarness(t)

			if err := newWailsWindow(context.Background(), tt.alwaysOnTop).Focus(); err != nil {
				t.Fatalf("Focus() error = %v", err)
			}
			if got := strings.Join(h.window(), ","); got != tt.want {
				t.Fatalf("window calls = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWailsWindowShowUnminimises(t *testing.T) {
	h := installShellHarness(t)

	if err := newWailsWindow(context.Background(), true).Show(); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if got := strings.Join(h.window(), ","); got != "show,unminimise" {
		t.Fatalf("window calls = %q, want show,unminimise", got)
	}
}

func TestWailsWindowRecoversPanics(t *testing.T) {
	installShellHarness(t)
	testutil.Swap(t, &runtimeWindowShowFn, func(context.Context) { panic("no frontend") })

	err := newWailsWindow(context.Background(), true).Show()
	if err == nil || !strings.Contains(err.Error(), "window show panicked: no frontend") {
		t.Fatalf("Show() error = %v, want recovered panic", err)
	}
}
