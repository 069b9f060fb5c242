package hotkeys

import (
	"log/slog"
	"strings"
	"testing"

	"gopherlol-shell/internal/testutil"
)

func TestDefaultBinding(t *testing.T) {
	tests := []struct {
		goos     string
		wantMod  Modifier
		wantNorm string
	}{
		{goos: "darwin", wantMod: ModMeta, wantNorm: "Cmd+Space"},
		{goos: "windows", wantMod: ModControl, wantNorm: "Ctrl+Space"},
		{goos: "linux", wantMod: ModControl, wantNorm: "Ctrl+Space"},
		{goos: "plan9", wantMod: ModControl, wantNorm: "Ctrl+Space"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			binding := DefaultBinding(tt.goos)
			if binding.Modifier() != tt.wantMod {
				t.Errorf("Modifier() = %v, want %v", binding.Modifier(), tt.wantMod)
			}
			if binding.Key() != KeySpace {
				t.Errorf("Key() = %v, want Space", binding.Key())
			}
			if binding.Normalized() != tt.wantNorm {
				t.Errorf("Normalized() = %q, want %q", binding.Normalized(), tt.wantNorm)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		spec         string
		goos         string
		wantNorm     string
		wantFromSpec bool
		wantWarning  bool
	}{
		{name: "valid spec wins over default", spec: "alt+space", goos: "darwin", wantNorm: "Alt+Space", wantFromSpec: true},
		{name: "empty falls back on darwin", spec: "", goos: "darwin", wantNorm: "Cmd+Space"},
		{name: "empty falls back elsewhere", spec: "", goos: "windows", wantNorm: "Ctrl+Space"},
		{name: "invalid falls back with warning", spec: "win+space", goos: "linux", wantNorm: "Ctrl+Space", wantWarning: true},
		{name: "malformed falls back with warning", spec: "cmd+ctrl+space", goos: "darwin", wantNorm: "Cmd+Space", wantWarning: true},
		{name: "padded falls back with warning", spec: " cmd+space", goos: "linux", wantNorm: "Ctrl+Space", wantWarning: true},
		{name: "whitespace only uses default silently", spec: " \t", goos: "windows", wantNorm: "Ctrl+Space"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logBuf := testutil.CaptureLogBuffer(t, slog.LevelDebug)

			binding, fromSpec := Resolve(tt.spec, tt.goos)
			if binding.Normalized() != tt.wantNorm {
				t.Errorf("Normalized() = %q, want %q", binding.Normalized(), tt.wantNorm)
			}
			if fromSpec != tt.wantFromSpec {
				t.Errorf("fromSpec = %v, want %v", fromSpec, tt.wantFromSpec)
			}
			gotWarning := strings.Contains(logBuf.String(), "invalid shortcut")
			if gotWarning != tt.wantWarning {
				t.Errorf("warning logged = %v, want %v; log=%q", gotWarning, tt.wantWarning, logBuf.String())
			}
		})
	}
}
