package engine

import (
	"context"
	"time"
)

// interval is the per-character delay for this request. A request's own
// interval replaces the controller base and the adaptive ceiling never
// drops below it.
func (e *Engine) interval(req Request) time.Duration {
	c := e.rate
	if req.CharInterval > 0 {
		c.Base = req.CharInterval
		if c.Max < c.Base {
			c.Max = c.Base
		}
	}
	load, err := e.load.Load()
	if err != nil {
		return c.Base
	}
	return c.IntervalFor(load)
}

// viaTyping emits the text chunk by chunk, checking for abort between
// chunks. Characters already typed when a failure or abort happens stay
// typed.
func (e *Engine) viaTyping(ctx context.Context, req Request) Outcome {
	size := req.ChunkSize
	if size <= 0 {
		size = e.chunkSize
	}
	lb, breaks := e.inj.(LineBreaker)
	steps := plan(req.Text, size, breaks)

	var out Outcome
	if kc, ok := e.inj.(KeyChecker); ok {
		for _, s := range steps {
			if s.enter {
				continue
			}
			if err := kc.Check(s.text); err != nil {
				out.Failure, out.Err = InjectionFailure, err
				return out
			}
		}
	}
	for i, s := range steps {
		if e.stopped(ctx) {
			out.Failure = Aborted
			return out
		}
		if s.enter {
			if err := lb.Enter(); err != nil {
				out.Failure, out.Err = InjectionFailure, err
				return out
			}
			out.Chars++
			continue
		}
		d := e.interval(req)
		if err := e.inj.Type(s.text, d); err != nil {
			out.Failure, out.Err = InjectionFailure, err
			return out
		}
		out.Chunks++
		out.Chars += CharCount(s.text)
		if i < len(steps)-1 {
			e.pause(ctx, d)
		}
	}
	out.Succeeded = true
	return out
}
