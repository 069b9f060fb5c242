package hotkeys

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch is returned when a shortcut string is not a recognized
// "<modifier>+<key>" pair.
var ErrNoMatch = errors.New("shortcut does not match")

var modifierByName = map[string]Modifier{
	"cmd":   ModMeta,
	"ctrl":  ModControl,
	"alt":   ModAlt,
	"shift": ModShift,
}

// keyByName lists the primary keys a shortcut may use. Add entries here to
// support more keys; each one also needs a key code in the listener package.
var keyByName = map[string]Key{
	"space": KeySpace,
}

// ParseBinding parses a binding like "Cmd+Space". Tokens must match exactly,
// ignoring case; any whitespace makes the binding invalid.
func ParseBinding(spec string) (Binding, error) {
	raw := strings.ToLower(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("%w: empty shortcut", ErrNoMatch)
	}

	parts := strings.Split(raw, "+")
	if len(parts) != 2 {
		return Binding{}, fmt.Errorf("%w: %q must be <modifier>+<key>", ErrNoMatch, spec)
	}

	mod, ok := modifierByName[parts[0]]
	if !ok {
		return Binding{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrNoMatch, parts[0], spec)
	}
	key, ok := keyByName[parts[1]]
	if !ok {
		return Binding{}, fmt.Errorf("%w: unknown key %q in %q", ErrNoMatch, parts[1], spec)
	}
	return newBinding(mod, key), nil
}
