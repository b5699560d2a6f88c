package clipboard

import (
	"errors"
	"syscall"
)

// A clipboard without CF_UNICODETEXT comes back with the errno left by
// IsClipboardFormatAvailable, which is zero.
func noText(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == 0
}
