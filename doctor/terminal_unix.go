//go:build !windows

package doctor

import "os/exec"

// resetTerminal undoes raw mode some hotkey backends leave behind.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
