//go:build windows

package shutdown

import "os"

// Windows delivers console close and Ctrl+C as os.Interrupt only.
var signals = []os.Signal{os.Interrupt}
