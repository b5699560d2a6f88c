package engine

import (
	"context"
	"errors"
	"time"

	"pasta/log"
	"pasta/monitor"
)

// viaClipboard stages the text on the clipboard, sends the paste shortcut
// and puts the previous contents back. If the original cannot be read
// nothing is touched, since there would be nothing to restore. An empty
// clipboard, or one holding no text, is restored as empty.
func (e *Engine) viaClipboard(ctx context.Context, req Request) Outcome {
	original, err := e.clip.Read()
	switch {
	case errors.Is(err, monitor.ErrNotText):
		original = ""
	case err != nil:
		return failure(ModeClipboard, ClipboardAccessFailure, err)
	}
	restore := e.own(original)
	defer restore()

	e.notifyOwn(req.Text)
	if err := e.clip.Write(req.Text); err != nil {
		return failure(ModeClipboard, ClipboardAccessFailure, err)
	}

	if e.stopped(ctx) {
		return failure(ModeClipboard, Aborted, nil)
	}
	if err := e.inj.Paste(); err != nil {
		return failure(ModeClipboard, InjectionFailure, err)
	}
	// The target reads the clipboard asynchronously after the shortcut.
	// Restoring too early would paste the old contents instead.
	time.Sleep(e.settle)

	out := success(ModeClipboard)
	out.Chunks = 1
	out.Chars = CharCount(req.Text)
	return out
}

// own marks the clipboard as borrowed and returns the release that puts
// original back. A failed restore is logged, never surfaced.
func (e *Engine) own(original string) func() {
	return func() {
		e.notifyOwn(original)
		if err := e.clip.Write(original); err != nil {
			log.Errorf("clipboard restore failed: %v", err)
		}
	}
}
