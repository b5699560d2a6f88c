//go:build linux

package clipboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ioctl constants from linux/uinput.h
const (
	uiSetEvbit  = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate = 0x5501     // UI_DEV_CREATE
)

// input event types from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
)

// key codes from linux/input-event-codes.h
const (
	keyLeftCtrl  = 29
	keyLeftShift = 42
	keyEnter     = 28
	keyV         = 47
)

const (
	busUSB     = 0x03
	deviceName = "pasta-keys"
)

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

var (
	fd     *os.File
	fdOnce sync.Once
	fdErr  error
	// writes from concurrent callers would interleave key state
	fdMu sync.Mutex
)

// Init creates the virtual keyboard. It is safe to call repeatedly.
func Init() error {
	fdOnce.Do(func() {
		path := "/dev/uinput"
		if _, err := os.Stat(path); err != nil {
			path = "/dev/input/uinput"
			if _, err := os.Stat(path); err != nil {
				fdErr = errors.New("uinput device not found, try: sudo modprobe uinput")
				return
			}
		}
		f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
		if err != nil {
			fdErr = err
			return
		}
		if err := ioctl(f, uiSetEvbit, evKey); err != nil {
			fdErr = err
			f.Close()
			return
		}
		if err := ioctl(f, uiSetEvbit, evSyn); err != nil {
			fdErr = err
			f.Close()
			return
		}
		// Register all standard keys so udev classifies this as a keyboard
		for i := uintptr(0); i < 256; i++ {
			if err := ioctl(f, uiSetKeybit, i); err != nil {
				fdErr = err
				f.Close()
				return
			}
		}
		dev := uinputUserDev{}
		copy(dev.Name[:], deviceName)
		dev.ID.Bustype = busUSB
		dev.ID.Vendor = 0x1234
		dev.ID.Product = 0x5679
		dev.ID.Version = 1
		if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
			fdErr = err
			f.Close()
			return
		}
		if err := ioctl(f, uiDevCreate, 0); err != nil {
			fdErr = err
			f.Close()
			return
		}
		fd = f
		// Give compositor time to recognize the new input device
		time.Sleep(200 * time.Millisecond)
	})
	return fdErr
}

func ioctl(f *os.File, req, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
		return errno
	}
	return nil
}

func writeEvent(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	return binary.Write(fd, binary.LittleEndian, &ev)
}

func syn() error {
	return writeEvent(evSyn, 0, 0)
}

func press(code uint16, value int32) error {
	if err := writeEvent(evKey, code, value); err != nil {
		return err
	}
	return syn()
}

// Paste sends Ctrl+V.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	fdMu.Lock()
	defer fdMu.Unlock()

	steps := []struct {
		code  uint16
		value int32
	}{
		{keyLeftCtrl, 1},
		{keyV, 1},
		{keyV, 0},
		{keyLeftCtrl, 0},
	}
	for i, s := range steps {
		if err := press(s.code, s.value); err != nil {
			return err
		}
		if i < len(steps)-1 {
			// Let compositor register modifier state
			time.Sleep(5 * time.Millisecond)
		}
	}
	return nil
}

func keyTap(code uint16, shift bool) error {
	if shift {
		if err := press(keyLeftShift, 1); err != nil {
			return err
		}
	}
	if err := press(code, 1); err != nil {
		return err
	}
	if err := press(code, 0); err != nil {
		return err
	}
	if shift {
		return press(keyLeftShift, 0)
	}
	return nil
}

// Enter taps the Return key.
func Enter() error {
	if err := Init(); err != nil {
		return err
	}
	fdMu.Lock()
	defer fdMu.Unlock()
	return keyTap(keyEnter, false)
}

// Type sends each character of text as a keystroke, sleeping interval
// between characters. Text with a character that has no US-layout key is
// rejected with ErrNoKey before any key is sent.
func Type(text string, interval time.Duration) error {
	if err := checkKeys(text, canType); err != nil {
		return err
	}
	if err := Init(); err != nil {
		return err
	}
	fdMu.Lock()
	defer fdMu.Unlock()
	for _, r := range text {
		code, shift, _ := charToKey(r)
		if err := keyTap(code, shift); err != nil {
			return err
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	return nil
}

// Verify creates the uinput device, sends a Ctrl+V keystroke, and reads it
// back from the kernel input layer to confirm delivery.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("uinput init: %w", err)
	}

	entries, err := os.ReadDir("/sys/class/input")
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}

	var evdevPath string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/sys/class/input", e.Name(), "device", "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == deviceName {
			evdevPath = filepath.Join("/dev/input", e.Name())
			break
		}
	}
	if evdevPath == "" {
		return "", fmt.Errorf("%s evdev device not found", deviceName)
	}

	evdev, err := os.Open(evdevPath)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", evdevPath, err)
	}
	defer evdev.Close()

	if err := Paste(); err != nil {
		return "", fmt.Errorf("paste send: %w", err)
	}

	type result struct {
		ctrl, v bool
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 24*32)
		var r result
		n, err := evdev.Read(buf)
		if err != nil {
			r.err = err
			ch <- r
			return
		}
		for i := 0; i+24 <= n; i += 24 {
			if binary.LittleEndian.Uint16(buf[i+16:]) != evKey {
				continue
			}
			switch binary.LittleEndian.Uint16(buf[i+18:]) {
			case keyLeftCtrl:
				r.ctrl = true
			case keyV:
				r.v = true
			}
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading events: %w", r.err)
		}
		if !r.ctrl || !r.v {
			return "", fmt.Errorf("missing events (ctrl=%v, v=%v)", r.ctrl, r.v)
		}
		return fmt.Sprintf("Ctrl+V keystroke verified via %s", evdevPath), nil
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timed out waiting for keystroke events")
	}
}
