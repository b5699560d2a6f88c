package hotkey

import "golang.design/x/hotkey"

func xMod(m Mod) hotkey.Modifier {
	switch m {
	case ModShift:
		return hotkey.ModShift
	case ModAlt:
		return hotkey.ModAlt
	case ModCmd:
		return hotkey.ModWin
	}
	return hotkey.ModCtrl
}
