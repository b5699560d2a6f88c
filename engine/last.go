package engine

import (
	"context"
	"errors"

	"pasta/history"
)

var errNoEntry = errors.New("history is empty")

// Recent is the slice of the history store needed to paste the last item.
type Recent interface {
	MostRecent(ctx context.Context) (*history.Entry, error)
}

// PasteLast pastes the newest text entry from the history.
func (e *Engine) PasteLast(ctx context.Context, src Recent, mode Mode) Outcome {
	entry, err := src.MostRecent(ctx)
	if err != nil {
		return failure(mode, NothingToPaste, err)
	}
	if entry == nil || entry.Content == "" {
		return failure(mode, NothingToPaste, errNoEntry)
	}
	return e.Paste(ctx, Request{Text: entry.Content, Mode: mode})
}
