//go:build windows

package doctor

// The Windows console is never left in raw mode by the hotkey backend.
func resetTerminal() {}
