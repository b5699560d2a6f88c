// Package rate computes the delay between simulated keystrokes.
package rate

import (
	"sync"
	"time"
)

// loadKnee is the saturation below which the base interval is used.
const loadKnee = 0.5

// Controller maps a load hint to a per-character interval. It holds no
// mutable state and may be shared between goroutines.
type Controller struct {
	Base     time.Duration
	Max      time.Duration
	Adaptive bool
}

// IntervalFor returns the interval for load, a 0..1 saturation hint.
// Out-of-range hints are clamped.
func (c Controller) IntervalFor(load float64) time.Duration {
	if !c.Adaptive || c.Max <= c.Base {
		return c.Base
	}
	switch {
	case load != load || load <= loadKnee: // NaN counts as idle
		return c.Base
	case load >= 1:
		return c.Max
	}
	frac := (load - loadKnee) / (1 - loadKnee)
	return c.Base + time.Duration(frac*float64(c.Max-c.Base))
}

// Sampler reports current system saturation in 0..1.
type Sampler interface {
	Load() (float64, error)
}

// Idle always reports an unloaded system.
type Idle struct{}

func (Idle) Load() (float64, error) { return 0, nil }

// cacheTTL bounds how often the OS is asked for a fresh sample.
const cacheTTL = 2 * time.Second

// Cached wraps a Sampler and reuses a sample for cacheTTL.
type Cached struct {
	src Sampler
	now func() time.Time

	mu   sync.Mutex
	at   time.Time
	last float64
}

// NewCached wraps src. A src that already caches is returned as is.
func NewCached(src Sampler) *Cached {
	if c, ok := src.(*Cached); ok {
		return c
	}
	return &Cached{src: src, now: time.Now}
}

func (c *Cached) Load() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !c.at.IsZero() && now.Sub(c.at) < cacheTTL {
		return c.last, nil
	}
	v, err := c.src.Load()
	if err != nil {
		return 0, err
	}
	c.at = now
	c.last = v
	return v, nil
}
