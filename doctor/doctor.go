// Package doctor runs diagnostic checks for the clipboard, keyboard
// injection and hotkey backends.
package doctor

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Check is one diagnostic. Run returns a short detail line on success.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// CheckTimeout bounds a single check so a hung backend cannot stall the
// whole run.
const CheckTimeout = 15 * time.Second

// Run executes checks in order, printing one PASS/FAIL line each, and
// returns an exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, w io.Writer, checks []Check) int {
	fmt.Fprintln(w, "pasta doctor - system diagnostics")
	fmt.Fprintln(w, "=================================")

	failed := 0
	for i, c := range checks {
		fmt.Fprintf(w, "\n[%d/%d] %s\n", i+1, len(checks), c.Name)
		detail, err := runOne(ctx, c)
		if err != nil {
			failed++
			fmt.Fprintf(w, "  FAIL: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  PASS: %s\n", detail)
	}

	fmt.Fprintln(w)
	if failed == 0 {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintf(w, "%d check(s) failed. See details above.\n", failed)
	return 1
}

func runOne(ctx context.Context, c Check) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	type result struct {
		detail string
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		d, err := c.Run(ctx)
		ch <- result{d, err}
	}()

	select {
	case r := <-ch:
		return r.detail, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("timed out: %w", ctx.Err())
	}
}
