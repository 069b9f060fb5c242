package hotkeys

import (
	"log/slog"
	"strings"
)

// fallbackDefaultSpec applies on every platform missing from platformDefaultSpecs.
const fallbackDefaultSpec = "ctrl+space"

// platformDefaultSpecs maps a GOOS value to its conventional launcher shortcut.
var platformDefaultSpecs = map[string]string{
	"darwin": "cmd+space",
}

// DefaultBinding returns the platform default shortcut for goos.
func DefaultBinding(goos string) Binding {
	spec, ok := platformDefaultSpecs[goos]
	if !ok {
		spec = fallbackDefaultSpec
	}
	binding, err := ParseBinding(spec)
	if err != nil {
		// The tables above are static; reaching this means they disagree.
		panic("hotkeys: invalid platform default " + spec + ": " + err.Error())
	}
	return binding
}

// Resolve parses spec and falls back to DefaultBinding(goos) when spec is
// empty or does not parse. The boolean reports whether spec itself was used.
func Resolve(spec string, goos string) (Binding, bool) {
	if strings.TrimSpace(spec) == "" {
		return DefaultBinding(goos), false
	}
	binding, err := ParseBinding(spec)
	if err != nil {
		fallback := DefaultBinding(goos)
		slog.Warn("[hotkey] invalid shortcut, using platform default",
			"shortcut", spec, "default", fallback.Normalized(), "error", err)
		return fallback, false
	}
	return binding, true
}
