package hotkey

import (
	"context"
	"time"
)

// DoubleTap fires when a hotkey is pressed twice within a window. A third
// press starts a new pair.
type DoubleTap struct {
	fired  chan struct{}
	window time.Duration
	now    func() time.Time
	last   time.Time
}

func NewDoubleTap(window time.Duration) *DoubleTap {
	if window <= 0 {
		window = DoubleTapWindow
	}
	return &DoubleTap{
		fired:  make(chan struct{}, 1),
		window: window,
		now:    time.Now,
	}
}

func (d *DoubleTap) Fired() <-chan struct{} { return d.fired }

// Run consumes presses from hk until ctx ends. Only one Run may be
// active at a time.
func (d *DoubleTap) Run(ctx context.Context, hk Hotkey) {
	Watch(ctx, hk, d.press)
}

func (d *DoubleTap) press() {
	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) <= d.window {
		d.last = time.Time{}
		select {
		case d.fired <- struct{}{}:
		default:
		}
		return
	}
	d.last = now
}
