package hotkeys

// Modifier is the qualifier key of a shortcut.
type Modifier int

const (
	ModNone Modifier = iota
	ModMeta
	ModControl
	ModAlt
	ModShift
)

// String returns the canonical display name of the modifier.
func (m Modifier) String() string {
	switch m {
	case ModMeta:
		return "Cmd"
	case ModControl:
		return "Ctrl"
	case ModAlt:
		return "Alt"
	case ModShift:
		return "Shift"
	default:
		return ""
	}
}

// Key is the primary key of a shortcut.
type Key int

const (
	KeySpace Key = iota + 1
)

// String returns the canonical display name of the key.
func (k Key) String() string {
	switch k {
	case KeySpace:
		return "Space"
	default:
		return ""
	}
}

// State is the key-state carried by a shortcut event.
type State int

const (
	StatePressed State = iota
	StateReleased
)

func (s State) String() string {
	if s == StatePressed {
		return "pressed"
	}
	return "released"
}

// Binding describes a parsed global shortcut.
// Construct only via ParseBinding or DefaultBinding to guarantee invariant consistency.
type Binding struct {
	modifier   Modifier
	key        Key
	normalized string
}

func newBinding(mod Modifier, key Key) Binding {
	normalized := key.String()
	if mod != ModNone {
		normalized = mod.String() + "+" + normalized
	}
	return Binding{modifier: mod, key: key, normalized: normalized}
}

// Modifier returns the modifier of the binding.
func (b Binding) Modifier() Modifier { return b.modifier }

// Key returns the primary key of the binding.
func (b Binding) Key() Key { return b.key }

// Normalized returns the canonical human-readable binding string.
func (b Binding) Normalized() string { return b.normalized }

// IsZero reports whether b was never constructed by the parser.
func (b Binding) IsZero() bool { return b.key == 0 }
