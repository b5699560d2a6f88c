package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pasta/hotkey"
	"pasta/monitor"
)

// Clipboard is the clipboard as the doctor uses it.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// ClipboardRoundTrip writes a sentinel, reads it back and then puts the
// original contents back, the same borrow-and-restore the clipboard
// paste mode relies on.
func ClipboardRoundTrip(cb Clipboard) Check {
	return Check{
		Name: "Clipboard read/write/restore",
		Run: func(context.Context) (string, error) {
			original, err := readText(cb)
			if err != nil {
				return "", fmt.Errorf("clipboard read failed: %w", err)
			}
			sentinel := fmt.Sprintf("pasta-doctor-%d", time.Now().UnixNano())
			if err := cb.Write(sentinel); err != nil {
				return "", fmt.Errorf("clipboard write failed: %w", err)
			}
			got, readErr := cb.Read()
			if err := cb.Write(original); err != nil {
				return "", fmt.Errorf("clipboard restore failed: %w", err)
			}
			if readErr != nil {
				return "", fmt.Errorf("clipboard read back failed: %w", readErr)
			}
			if got != sentinel {
				return "", fmt.Errorf("clipboard mismatch: wrote %q, got %q", sentinel, got)
			}
			restored, err := readText(cb)
			if err != nil {
				return "", fmt.Errorf("clipboard read after restore failed: %w", err)
			}
			if restored != original {
				return "", errors.New("clipboard not preserved after restore")
			}
			return "clipboard write/read verified and restored", nil
		},
	}
}

// readText treats a clipboard without text as empty.
func readText(cb Clipboard) (string, error) {
	text, err := cb.Read()
	if errors.Is(err, monitor.ErrNotText) {
		return "", nil
	}
	return text, err
}

// Keyboard checks the keystroke backend with init and verify.
func Keyboard(initFn func() error, verify func() (string, error)) Check {
	return Check{
		Name: "Keystroke output",
		Run: func(context.Context) (string, error) {
			if err := initFn(); err != nil {
				return "", fmt.Errorf("%w (on Linux: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput)", err)
			}
			return verify()
		},
	}
}

// HotkeyBackend reports whether global hotkeys can be read.
func HotkeyBackend(diagnose func() (string, error)) Check {
	return Check{Name: "Hotkey backend", Run: func(context.Context) (string, error) { return diagnose() }}
}

// HotkeyPress registers hk and waits for the user to press combo.
func HotkeyPress(hk hotkey.Hotkey, combo string, wait time.Duration) Check {
	return Check{
		Name: "Hotkey detection (press " + combo + ")",
		Run: func(ctx context.Context) (string, error) {
			if err := hk.Register(); err != nil {
				return "", fmt.Errorf("could not register hotkey: %w", err)
			}
			defer hk.Unregister()
			defer resetTerminal()

			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-hk.Keydown():
				select {
				case <-hk.Keyup():
				case <-time.After(2 * time.Second):
				}
				return "hotkey detected", nil
			case <-t.C:
				return "", errors.New("timeout waiting for hotkey")
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	}
}

// WritableDir checks that dir exists or can be created and accepts files.
func WritableDir(name, dir string) Check {
	return Check{
		Name: name + " directory",
		Run: func(context.Context) (string, error) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("cannot create %s: %w", dir, err)
			}
			f, err := os.CreateTemp(dir, ".pasta-doctor-*")
			if err != nil {
				return "", fmt.Errorf("cannot write to %s: %w", dir, err)
			}
			f.Close()
			os.Remove(f.Name())
			return filepath.Clean(dir), nil
		},
	}
}
