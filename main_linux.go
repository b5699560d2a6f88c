//go:build linux

package main

// The evdev hotkey backend reads input devices from any goroutine, so
// Linux needs no main-thread handoff.
func main() {
	run()
}
