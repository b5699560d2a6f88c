//go:build !linux

package clipboard

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
	kbMu   sync.Mutex
)

func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

// Paste sends Cmd+V on macOS and Ctrl+V elsewhere.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}

// Enter taps the Return key.
func Enter() error {
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	return tap(keybd_event.VK_ENTER, false)
}

func tap(vk int, shift bool) error {
	kb.Clear()
	kb.SetKeys(vk)
	kb.HasSHIFT(shift)
	return kb.Launching()
}

// Type sends each character of text as a keystroke. Text with a
// character that has no US-layout key is rejected with ErrNoKey before
// any key is sent.
func Type(text string, interval time.Duration) error {
	if err := checkKeys(text, canType); err != nil {
		return err
	}
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	for _, r := range text {
		vk, shift, _ := charToVK(r)
		if err := tap(vk, shift); err != nil {
			return err
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	return nil
}

var letterVKs = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digitVKs = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

// US layout punctuation: the unshifted and shifted character on each key.
var punctVKs = map[rune]struct {
	vk    int
	shift bool
}{
	'`': {keybd_event.VK_SP1, false}, '~': {keybd_event.VK_SP1, true},
	'-': {keybd_event.VK_SP2, false}, '_': {keybd_event.VK_SP2, true},
	'=': {keybd_event.VK_SP3, false}, '+': {keybd_event.VK_SP3, true},
	'[': {keybd_event.VK_SP4, false}, '{': {keybd_event.VK_SP4, true},
	']': {keybd_event.VK_SP5, false}, '}': {keybd_event.VK_SP5, true},
	';': {keybd_event.VK_SP6, false}, ':': {keybd_event.VK_SP6, true},
	'\'': {keybd_event.VK_SP7, false}, '"': {keybd_event.VK_SP7, true},
	'\\': {keybd_event.VK_SP8, false}, '|': {keybd_event.VK_SP8, true},
	',': {keybd_event.VK_SP9, false}, '<': {keybd_event.VK_SP9, true},
	'.': {keybd_event.VK_SP10, false}, '>': {keybd_event.VK_SP10, true},
	'/': {keybd_event.VK_SP11, false}, '?': {keybd_event.VK_SP11, true},
}

// shifted digits, ')' through '(' on keys 0 to 9
const digitShifts = ")!@#$%^&*("

func charToVK(c rune) (vk int, shift bool, ok bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return letterVKs[c-'a'], false, true
	case c >= 'A' && c <= 'Z':
		return letterVKs[c-'A'], true, true
	case c >= '0' && c <= '9':
		return digitVKs[c-'0'], false, true
	case c == ' ':
		return keybd_event.VK_SPACE, false, true
	case c == '\t':
		return keybd_event.VK_TAB, false, true
	case c == '\n':
		return keybd_event.VK_ENTER, false, true
	}
	if i := strings.IndexRune(digitShifts, c); i >= 0 {
		return digitVKs[i], true, true
	}
	if k, found := punctVKs[c]; found {
		return k.vk, k.shift, true
	}
	return 0, false, false
}

func canType(c rune) bool {
	_, _, ok := charToVK(c)
	return ok
}

// Verify checks that the keyboard event binding is initialized.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("keyboard binding: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return "keyboard event binding OK (Cmd+V)", nil
	}
	return "keyboard event binding OK (Ctrl+V)", nil
}
