//go:build linux

package rate

import "testing"

func TestParseLoadavg(t *testing.T) {
	v, err := parseLoadavg("2.00 1.50 1.00 2/345 6789\n", 4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0.5 {
		t.Errorf("got %v, want 0.5", v)
	}

	v, _ = parseLoadavg("16.0 1 1 1/1 1", 4)
	if v != 1 {
		t.Errorf("got %v, want clamp to 1", v)
	}

	if _, err := parseLoadavg("", 4); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := parseLoadavg("abc", 4); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestSystemSampler(t *testing.T) {
	if _, err := (System{path: "/proc/loadavg"}).Load(); err != nil {
		t.Skipf("no /proc/loadavg: %v", err)
	}
}

func TestNewSystemCachesOnce(t *testing.T) {
	c, ok := NewSystem().(*Cached)
	if !ok {
		t.Fatal("NewSystem does not cache samples")
	}
	if _, inner := c.src.(*Cached); inner {
		t.Error("system sampler cached twice")
	}
}
