//go:build linux

package listener

import (
	"gopherlol-shell/internal/hotkeys"

	"golang.design/x/hotkey"
)

// X11 has no named Alt/Super modifiers; Mod1 is Alt and Mod4 is Super.
var platformModifiers = map[hotkeys.Modifier][]hotkey.Modifier{
	hotkeys.ModMeta:    {hotkey.Mod4},
	hotkeys.ModControl: {hotkey.ModCtrl},
	hotkeys.ModAlt:     {hotkey.Mod1},
	hotkeys.ModShift:   {hotkey.ModShift},
}
