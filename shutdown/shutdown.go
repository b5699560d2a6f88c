// Package shutdown turns OS termination signals into context
// cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"

	"pasta/log"
)

// Context returns a context cancelled on the first interrupt or
// termination signal, or when stop is called.
func Context(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	ctx, cancel := context.WithCancel(parent)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Infof("received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
