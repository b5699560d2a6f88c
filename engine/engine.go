// Package engine delivers text into the focused application, either by
// synthesizing keystrokes or by staging it on the clipboard and sending
// the platform paste shortcut.
package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pasta/log"
	"pasta/rate"
)

// State is the engine's lifecycle position.
type State int32

const (
	Idle State = iota
	Pasting
	Aborting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pasting:
		return "pasting"
	case Aborting:
		return "aborting"
	}
	return "unknown"
}

// Injector synthesizes input into the focused window. A single call is
// never interrupted.
type Injector interface {
	// Type emits text literally, pausing interval between characters.
	Type(text string, interval time.Duration) error
	// Paste sends the platform paste shortcut.
	Paste() error
}

// LineBreaker is implemented by injectors that cannot type a literal
// newline and need an explicit Return key press instead.
type LineBreaker interface {
	Enter() error
}

// KeyChecker is implemented by injectors that cannot produce every
// character. Check runs on all typed text before the first keystroke so a
// paste either types everything or nothing.
type KeyChecker interface {
	Check(text string) error
}

// Quota decides whether a paste of chars characters may go ahead.
type Quota interface {
	Allow(chars int) bool
}

// Clipboard is the system clipboard as seen by the engine.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Request is one paste. Zero ChunkSize and CharInterval take the engine
// defaults.
type Request struct {
	Text         string
	Mode         Mode
	ChunkSize    int
	CharInterval time.Duration
}

type Options struct {
	Injector  Injector
	Clipboard Clipboard

	ChunkSize              int
	ClipboardModeThreshold int
	// SettleDelay is how long the staged text stays on the clipboard after
	// the paste shortcut, giving the target application time to read it.
	SettleDelay time.Duration

	Rate rate.Controller
	Load rate.Sampler
	// Quota, when set, is consulted once per non-blank paste.
	Quota Quota

	// OwnWrite, when set, is told about every clipboard write the engine
	// makes so a monitor can ignore them.
	OwnWrite func(text string)
}

type Engine struct {
	inj       Injector
	clip      Clipboard
	chunkSize int
	threshold int
	settle    time.Duration
	rate      rate.Controller
	load      rate.Sampler
	quota     Quota
	ownWrite  func(string)

	state  atomic.Int32
	mu     sync.Mutex // guards abort
	abort  chan struct{}
	pastes atomic.Int64
}

func New(opts Options) *Engine {
	e := &Engine{
		inj:       opts.Injector,
		clip:      opts.Clipboard,
		chunkSize: opts.ChunkSize,
		threshold: opts.ClipboardModeThreshold,
		settle:    opts.SettleDelay,
		rate:      opts.Rate,
		load:      opts.Load,
		quota:     opts.Quota,
		ownWrite:  opts.OwnWrite,
	}
	if e.chunkSize <= 0 {
		e.chunkSize = DefaultChunkSize
	}
	if e.threshold <= 0 {
		e.threshold = DefaultClipboardModeThreshold
	}
	if e.load == nil {
		e.load = rate.Idle{}
	}
	return e
}

func (e *Engine) State() State { return State(e.state.Load()) }

// IsPasting reports whether a paste is running, including one that is
// winding down after Abort.
func (e *Engine) IsPasting() bool { return e.State() != Idle }

// Pastes counts completed successful pastes.
func (e *Engine) Pastes() int64 { return e.pastes.Load() }

// Abort asks the running paste to stop at its next checkpoint. It does
// nothing when the engine is idle or already aborting.
func (e *Engine) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.CompareAndSwap(int32(Pasting), int32(Aborting)) && e.abort != nil {
		close(e.abort)
		log.Info("paste abort requested")
	}
}

// PasteText is the boolean form of Paste: true only when the text was
// delivered in full.
func (e *Engine) PasteText(ctx context.Context, text string, mode Mode) bool {
	return e.Paste(ctx, Request{Text: text, Mode: mode}).OK()
}

// Paste delivers req.Text. It blocks until the paste finishes, fails or
// is aborted. A second call while one is running returns Busy at once.
// Cancelling ctx has the same effect as Abort.
func (e *Engine) Paste(ctx context.Context, req Request) Outcome {
	if !e.acquire() {
		return failure(req.Mode, Busy, nil)
	}
	defer e.release()

	if strings.TrimSpace(req.Text) == "" {
		return success(Resolve(req.Mode, req.Text, e.threshold))
	}

	start := time.Now()
	mode := Resolve(req.Mode, req.Text, e.threshold)
	if e.quota != nil && !e.quota.Allow(CharCount(req.Text)) {
		log.Warn("paste refused: rate limit reached")
		return failure(mode, RateLimited, nil)
	}
	log.PasteStart(string(mode), string(req.Mode), len(req.Text))

	var out Outcome
	switch mode {
	case ModeClipboard:
		out = e.viaClipboard(ctx, req)
	default:
		out = e.viaTyping(ctx, req)
	}
	out.Mode = mode

	m := log.PasteMetrics{
		Mode:      string(mode),
		Requested: string(req.Mode),
		Chars:     out.Chars,
		Chunks:    out.Chunks,
		Duration:  time.Since(start),
	}
	if !out.Succeeded {
		m.Failure = out.Failure.String()
	} else {
		e.pastes.Add(1)
	}
	log.PasteEnd(m)
	if out.Err != nil {
		log.Warnf("paste %s: %v", out.Failure, out.Err)
	}
	return out
}

func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.CompareAndSwap(int32(Idle), int32(Pasting)) {
		return false
	}
	e.abort = make(chan struct{})
	return true
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abort = nil
	e.state.Store(int32(Idle))
}

// stopped is the cooperative checkpoint between steps.
func (e *Engine) stopped(ctx context.Context) bool {
	return e.State() == Aborting || ctx.Err() != nil
}

func (e *Engine) abortChan() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abort
}

// pause sleeps for d unless the paste is aborted first.
func (e *Engine) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-e.abortChan():
	case <-ctx.Done():
	}
}

func (e *Engine) notifyOwn(text string) {
	if e.ownWrite != nil {
		e.ownWrite(text)
	}
}
