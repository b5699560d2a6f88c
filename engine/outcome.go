package engine

import "fmt"

// FailureKind classifies why a paste did not complete.
type FailureKind int

const (
	None FailureKind = iota
	InjectionFailure
	ClipboardAccessFailure
	Busy
	Aborted
	NothingToPaste
	// RateLimited means the paste quota was spent. Nothing was sent.
	RateLimited
)

func (k FailureKind) String() string {
	switch k {
	case None:
		return "none"
	case InjectionFailure:
		return "injection"
	case ClipboardAccessFailure:
		return "clipboard_access"
	case Busy:
		return "busy"
	case Aborted:
		return "aborted"
	case NothingToPaste:
		return "nothing_to_paste"
	case RateLimited:
		return "rate_limited"
	}
	return fmt.Sprintf("failure(%d)", int(k))
}

// Outcome reports how a paste ended. Failures are values, not errors.
type Outcome struct {
	Succeeded bool
	Failure   FailureKind
	// Mode is the strategy that ran after auto resolution.
	Mode Mode
	// Chunks and Chars count what reached the injector.
	Chunks int
	Chars  int
	// Err is the underlying cause for injection and clipboard failures.
	Err error
}

func (o Outcome) OK() bool      { return o.Succeeded }
func (o Outcome) Aborted() bool { return o.Failure == Aborted }

func success(mode Mode) Outcome {
	return Outcome{Succeeded: true, Mode: mode}
}

func failure(mode Mode, kind FailureKind, err error) Outcome {
	return Outcome{Failure: kind, Mode: mode, Err: err}
}
