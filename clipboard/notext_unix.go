//go:build !windows

package clipboard

import (
	"errors"
	"os/exec"
	"strings"
)

// xclip, xsel and wl-paste exit non-zero with one of these when the
// selection is empty or offers no text type.
var noTextMessages = []string{
	"not available",
	"no selection",
	"no suitable type",
	"nothing is copied",
}

func noText(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	msg := strings.ToLower(string(exitErr.Stderr))
	for _, m := range noTextMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
