// Package hotkey registers global key combinations and turns their
// presses into events.
package hotkey

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

type Mod string

const (
	ModCtrl  Mod = "ctrl"
	ModShift Mod = "shift"
	ModAlt   Mod = "alt"
	ModCmd   Mod = "cmd"
)

// Combo is a set of modifiers plus one key, such as ctrl+shift+v.
type Combo struct {
	Mods []Mod
	Key  string
}

const (
	DefaultPasteLast = "ctrl+shift+v"
	DefaultAbort     = "esc"
)

// DoubleTapWindow is how close two presses must be to count as one
// double tap.
const DoubleTapWindow = 500 * time.Millisecond

var keyAliases = map[string]string{
	"escape":  "esc",
	"return":  "enter",
	"option":  "alt",
	"control": "ctrl",
	"command": "cmd",
	"super":   "cmd",
	"win":     "cmd",
}

// ParseCombo reads "ctrl+shift+v" style text. Case is ignored.
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var c Combo
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if a, ok := keyAliases[p]; ok {
			p = a
		}
		if i == len(parts)-1 {
			if !knownKey(p) {
				return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, p)
			}
			c.Key = p
			break
		}
		switch m := Mod(p); m {
		case ModCtrl, ModShift, ModAlt, ModCmd:
			if !slices.Contains(c.Mods, m) {
				c.Mods = append(c.Mods, m)
			}
		default:
			return Combo{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
		}
	}
	return c, nil
}

func (c Combo) String() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, c.Key), "+")
}

func (c Combo) has(m Mod) bool { return slices.Contains(c.Mods, m) }

// knownKey reports whether key can be bound on every platform.
func knownKey(key string) bool {
	switch {
	case len(key) == 1 && (key[0] >= 'a' && key[0] <= 'z' || key[0] >= '0' && key[0] <= '9'):
		return true
	case key == "esc", key == "space", key == "enter", key == "tab":
		return true
	case strings.HasPrefix(key, "f"):
		var n int
		_, err := fmt.Sscanf(key, "f%d", &n)
		return err == nil && n >= 1 && n <= 12 && key == fmt.Sprintf("f%d", n)
	}
	return false
}

// Watch calls fn for every press of hk until ctx ends. Releases are
// drained so the backend never blocks.
func Watch(ctx context.Context, hk Hotkey, fn func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			fn()
		case <-hk.Keyup():
		}
	}
}
