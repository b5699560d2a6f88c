//go:build !linux

package clipboard

import (
	"testing"

	"github.com/micmonay/keybd_event"
)

func TestCharToVK(t *testing.T) {
	tests := []struct {
		c     rune
		vk    int
		shift bool
	}{
		{'a', keybd_event.VK_A, false},
		{'Q', keybd_event.VK_Q, true},
		{'5', keybd_event.VK_5, false},
		{'!', keybd_event.VK_1, true},
		{')', keybd_event.VK_0, true},
		{',', keybd_event.VK_SP9, false},
		{'<', keybd_event.VK_SP9, true},
		{'.', keybd_event.VK_SP10, false},
		{'?', keybd_event.VK_SP11, true},
		{'"', keybd_event.VK_SP7, true},
		{'\\', keybd_event.VK_SP8, false},
	}
	for _, tt := range tests {
		vk, shift, ok := charToVK(tt.c)
		if !ok || vk != tt.vk || shift != tt.shift {
			t.Errorf("charToVK(%q) = (%d, %v, %v), want (%d, %v, true)", tt.c, vk, shift, ok, tt.vk, tt.shift)
		}
	}
	if _, _, ok := charToVK('é'); ok {
		t.Error("charToVK('é') mapped, want no key")
	}
}
