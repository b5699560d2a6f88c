package rate

import (
	"sync"
	"time"
)

// Window admits at most Max events in any span of Per. A zero Max admits
// everything.
type Window struct {
	Max int
	Per time.Duration

	mu    sync.Mutex
	times []time.Time
}

func (w *Window) allow(now time.Time) bool {
	if w.Max <= 0 {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.Per)
	keep := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	w.times = keep
	if len(w.times) >= w.Max {
		return false
	}
	w.times = append(w.times, now)
	return true
}

// Quota limits how often text may be pasted. Pastes longer than
// LargeChars count against Large instead of Normal.
type Quota struct {
	Normal     *Window
	Large      *Window
	LargeChars int

	now func() time.Time
}

// NewQuota limits pastes to perMinute a minute and large pastes to
// largePer5Min every five minutes.
func NewQuota(perMinute, largePer5Min, largeChars int) *Quota {
	return &Quota{
		Normal:     &Window{Max: perMinute, Per: time.Minute},
		Large:      &Window{Max: largePer5Min, Per: 5 * time.Minute},
		LargeChars: largeChars,
		now:        time.Now,
	}
}

// Allow records a paste of chars characters and reports whether it is
// within quota. A refused paste is not recorded.
func (q *Quota) Allow(chars int) bool {
	now := q.now()
	if q.LargeChars > 0 && chars > q.LargeChars {
		return q.Large.allow(now)
	}
	return q.Normal.allow(now)
}
