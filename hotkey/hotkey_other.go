//go:build !linux

package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"
)

type xHotkey struct {
	combo   Combo
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
}

// New binds combo through the OS hotkey API. On macOS registration must
// happen on the main thread.
func New(combo Combo) Hotkey {
	h := &xHotkey{
		combo:   combo,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
	if key, ok := xKey(combo.Key); ok {
		var mods []hotkey.Modifier
		for _, m := range combo.Mods {
			mods = append(mods, xMod(m))
		}
		h.hk = hotkey.New(mods, key)
	}
	return h
}

func (h *xHotkey) Register() error {
	if h.hk == nil {
		return fmt.Errorf("hotkey %s: key not supported", h.combo)
	}
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for range h.hk.Keydown() {
			select {
			case h.keydown <- struct{}{}:
			default:
			}
		}
	}()
	go func() {
		for range h.hk.Keyup() {
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	if h.hk != nil {
		h.hk.Unregister()
	}
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

var xLetters = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var xDigits = [10]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

var xNamed = map[string]hotkey.Key{
	"esc":   hotkey.KeyEscape,
	"tab":   hotkey.KeyTab,
	"enter": hotkey.KeyReturn,
	"space": hotkey.KeySpace,
	"f1":    hotkey.KeyF1,
	"f2":    hotkey.KeyF2,
	"f3":    hotkey.KeyF3,
	"f4":    hotkey.KeyF4,
	"f5":    hotkey.KeyF5,
	"f6":    hotkey.KeyF6,
	"f7":    hotkey.KeyF7,
	"f8":    hotkey.KeyF8,
	"f9":    hotkey.KeyF9,
	"f10":   hotkey.KeyF10,
	"f11":   hotkey.KeyF11,
	"f12":   hotkey.KeyF12,
}

func xKey(key string) (hotkey.Key, bool) {
	if k, ok := xNamed[key]; ok {
		return k, true
	}
	if len(key) == 1 {
		switch ch := key[0]; {
		case ch >= 'a' && ch <= 'z':
			return xLetters[ch-'a'], true
		case ch >= '0' && ch <= '9':
			return xDigits[ch-'0'], true
		}
	}
	return 0, false
}

// Diagnose reports which backend is in use.
func Diagnose() (string, error) {
	return "hotkey support available (OS hotkey API)", nil
}
