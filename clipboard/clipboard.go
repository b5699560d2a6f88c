// Package clipboard talks to the system clipboard and synthesizes
// keyboard input into the focused window.
package clipboard

import (
	"fmt"

	cb "github.com/atotto/clipboard"

	"pasta/monitor"
)

// Read returns the clipboard text. An empty clipboard, or one holding
// something other than text, yields an error matching monitor.ErrNotText.
func Read() (string, error) {
	text, err := cb.ReadAll()
	if err != nil && noText(err) {
		return "", fmt.Errorf("%w: %v", monitor.ErrNotText, err)
	}
	return text, err
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// System is the process-wide clipboard.
type System struct{}

func (System) Read() (string, error)   { return Read() }
func (System) Write(text string) error { return Copy(text) }

// Supported reports whether a clipboard backend was found.
func Supported() bool {
	return !cb.Unsupported
}
