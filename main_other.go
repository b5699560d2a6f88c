//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// Hotkey registration on macOS and Windows must happen on the main
// thread, which mainthread.Init hands to the event loop.
func main() {
	mainthread.Init(run)
}
