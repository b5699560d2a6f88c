package rate

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestQuota(perMinute, large, largeChars int) (*Quota, *fakeClock) {
	c := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	q := NewQuota(perMinute, large, largeChars)
	q.now = c.now
	return q, c
}

func TestQuotaSlidingWindow(t *testing.T) {
	q, c := newTestQuota(3, 1, 100)
	for i := 0; i < 3; i++ {
		if !q.Allow(10) {
			t.Fatalf("paste %d refused", i)
		}
		c.t = c.t.Add(10 * time.Second)
	}
	if q.Allow(10) {
		t.Fatal("fourth paste inside a minute allowed")
	}
	// The first paste leaves the window 60s after it happened.
	c.t = c.t.Add(31 * time.Second)
	if !q.Allow(10) {
		t.Error("paste refused after the oldest left the window")
	}
	if q.Allow(10) {
		t.Error("refused paste should not have freed a slot")
	}
}

func TestQuotaLargePastesCountSeparately(t *testing.T) {
	q, c := newTestQuota(1, 1, 100)
	if !q.Allow(500) {
		t.Fatal("first large paste refused")
	}
	if q.Allow(500) {
		t.Fatal("second large paste allowed")
	}
	if !q.Allow(100) {
		t.Error("small paste blocked by the large window")
	}
	c.t = c.t.Add(5*time.Minute + time.Second)
	if !q.Allow(500) {
		t.Error("large paste refused after five minutes")
	}
}

func TestQuotaZeroDisables(t *testing.T) {
	q, _ := newTestQuota(0, 0, 100)
	for i := 0; i < 100; i++ {
		if !q.Allow(i * 10) {
			t.Fatalf("paste %d refused with limits off", i)
		}
	}
}
