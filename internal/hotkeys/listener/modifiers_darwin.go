//go:build darwin

package listener

import (
	"gopherlol-shell/internal/hotkeys"

	"golang.design/x/hotkey"
)

var platformModifiers = map[hotkeys.Modifier][]hotkey.Modifier{
	hotkeys.ModMeta:    {hotkey.ModCmd},
	hotkeys.ModControl: {hotkey.ModCtrl},
	hotkeys.ModAlt:     {hotkey.ModOption},
	hotkeys.ModShift:   {hotkey.ModShift},
}
