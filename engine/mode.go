package engine

import "strings"

// Mode selects the paste strategy.
type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeTyping    Mode = "typing"
	ModeClipboard Mode = "clipboard"
)

// ParseMode accepts auto, typing and clipboard. Anything else is auto.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTyping:
		return ModeTyping
	case ModeClipboard:
		return ModeClipboard
	}
	return ModeAuto
}

// DefaultClipboardModeThreshold is the length, in characters, below which
// auto mode pastes through the clipboard.
const DefaultClipboardModeThreshold = 500

// Resolve turns auto into a concrete mode. Short text goes through the
// clipboard; long text is typed.
func Resolve(mode Mode, text string, threshold int) Mode {
	switch mode {
	case ModeTyping, ModeClipboard:
		return mode
	}
	if CharCount(text) < threshold {
		return ModeClipboard
	}
	return ModeTyping
}
