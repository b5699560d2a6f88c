//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var modCodes = map[Mod][2]uint16{
	ModCtrl:  {29, 97},
	ModShift: {42, 54},
	ModAlt:   {56, 100},
	ModCmd:   {125, 126},
}

type evdevHotkey struct {
	combo   Combo
	code    uint16
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

// New watches for combo by reading /dev/input directly. The user must be
// in the input group.
func New(combo Combo) Hotkey {
	return &evdevHotkey{
		combo:   combo,
		code:    keyCode(combo.Key),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *evdevHotkey) Register() error {
	if h.code == 0 {
		return fmt.Errorf("hotkey %s: key not supported", h.combo)
	}
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

// modState tracks which modifiers are down on one device.
type modState map[uint16]bool

func (s modState) held(m Mod) bool {
	c := modCodes[m]
	return s[c[0]] || s[c[1]]
}

func (h *evdevHotkey) matches(s modState) bool {
	for _, m := range []Mod{ModCtrl, ModShift, ModAlt, ModCmd} {
		if s.held(m) != h.combo.has(m) {
			return false
		}
	}
	return true
}

func isMod(code uint16) bool {
	for _, c := range modCodes {
		if code == c[0] || code == c[1] {
			return true
		}
	}
	return false
}

func (h *evdevHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	mods := modState{}
	var keyHeld bool

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			h.handle(mods, &keyHeld, evCode, evValue)
		}
	}
}

func (h *evdevHotkey) handle(mods modState, keyHeld *bool, code uint16, value int32) {
	pressed := value == keyPress
	released := value == keyRelease

	switch {
	case isMod(code):
		mods[code] = pressed || (!released && mods[code])
	case code == h.code:
		if pressed && !*keyHeld && h.matches(mods) {
			*keyHeld = true
			select {
			case h.keydown <- struct{}{}:
			default:
			}
		} else if released && *keyHeld {
			*keyHeld = false
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *evdevHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks that at least one keyboard can be opened.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
