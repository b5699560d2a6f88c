package clipboard

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNoKey is returned when text holds characters the keyboard layout has
// no key for. Nothing is typed in that case.
var ErrNoKey = errors.New("no key for character")

// Keyboard injects input into whichever window has focus. It sends line
// breaks as explicit Return taps rather than literal characters.
type Keyboard struct{}

func (Keyboard) Type(text string, interval time.Duration) error { return Type(text, interval) }
func (Keyboard) Paste() error                                  { return Paste() }
func (Keyboard) Enter() error                                  { return Enter() }

// Check reports whether every character of text can be typed.
func (Keyboard) Check(text string) error { return checkKeys(text, canType) }

// checkKeys lists the distinct characters of text that have no key.
func checkKeys(text string, has func(rune) bool) error {
	var missing []rune
	for _, r := range text {
		if !has(r) && !slices.Contains(missing, r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %q", ErrNoKey, string(missing))
	}
	return nil
}
