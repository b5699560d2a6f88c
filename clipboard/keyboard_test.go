package clipboard

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckKeysListsEachMissingCharOnce(t *testing.T) {
	ascii := func(r rune) bool { return r < 128 }
	if err := checkKeys("Hello, World!", ascii); err != nil {
		t.Errorf("ascii text rejected: %v", err)
	}
	err := checkKeys("café – naïve café", ascii)
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("err = %v, want ErrNoKey", err)
	}
	if !strings.Contains(err.Error(), `"é–ï"`) {
		t.Errorf("err = %v, want the distinct missing characters", err)
	}
}

func TestKeyboardCheck(t *testing.T) {
	var kb Keyboard
	if err := kb.Check("Hello, World! (a+b)*2 = \"x\"; path/to\\file ~ok?"); err != nil {
		t.Errorf("printable ASCII rejected: %v", err)
	}
	for _, text := range []string{"café", "– dash", "✓", "日本"} {
		if err := kb.Check(text); !errors.Is(err, ErrNoKey) {
			t.Errorf("Check(%q) = %v, want ErrNoKey", text, err)
		}
	}
}

func TestTypeRejectsUntypableText(t *testing.T) {
	if err := Type("naïve", 0); !errors.Is(err, ErrNoKey) {
		t.Errorf("Type = %v, want ErrNoKey before any key is sent", err)
	}
}
