//go:build windows

package listener

import (
	"gopherlol-shell/internal/hotkeys"

	"golang.design/x/hotkey"
)

var platformModifiers = map[hotkeys.Modifier][]hotkey.Modifier{
	hotkeys.ModMeta:    {hotkey.ModWin},
	hotkeys.ModControl: {hotkey.ModCtrl},
	hotkeys.ModAlt:     {hotkey.ModAlt},
	hotkeys.ModShift:   {hotkey.ModShift},
}
