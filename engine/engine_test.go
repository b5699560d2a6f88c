package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pasta/history"
	"pasta/log"
	"pasta/monitor"
	"pasta/rate"
)

func newEngine(inj Injector, clip Clipboard) *Engine {
	return New(Options{Injector: inj, Clipboard: clip})
}

func TestTypingSingleCall(t *testing.T) {
	inj := &FakeInjector{}
	e := newEngine(inj, NewFakeClipboard(""))

	out := e.Paste(context.Background(), Request{Text: "Hello, World!", Mode: ModeTyping})
	if !out.OK() {
		t.Fatalf("paste failed: %+v", out)
	}
	typed := inj.Typed()
	if len(typed) != 1 || typed[0] != "Hello, World!" {
		t.Errorf("typed %q, want one call with the full text", typed)
	}
	if e.State() != Idle {
		t.Errorf("state %s after paste", e.State())
	}
}

func TestAutoLongTextIsTyped(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("keep")
	e := newEngine(inj, clip)

	text := strings.Repeat("x", 10000)
	out := e.Paste(context.Background(), Request{Text: text, Mode: ModeAuto})
	if !out.OK() || out.Mode != ModeTyping {
		t.Fatalf("outcome %+v, want typing success", out)
	}
	if out.Chars != 10000 || inj.Output() != text {
		t.Errorf("emitted %d characters, want 10000", out.Chars)
	}
	if out.Chunks != 50 {
		t.Errorf("chunks = %d, want 50", out.Chunks)
	}
	if len(clip.Writes()) != 0 {
		t.Errorf("typing touched the clipboard: %q", clip.Writes())
	}
}

func TestAutoShortTextUsesClipboard(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("original")
	e := newEngine(inj, clip)

	out := e.Paste(context.Background(), Request{Text: "Small", Mode: ModeAuto})
	if !out.OK() || out.Mode != ModeClipboard {
		t.Fatalf("outcome %+v, want clipboard success", out)
	}
	writes := clip.Writes()
	if len(writes) != 2 || writes[0] != "Small" || writes[1] != "original" {
		t.Errorf("writes %q, want [Small original]", writes)
	}
	if inj.Pastes() != 1 || len(inj.Typed()) != 0 {
		t.Errorf("pastes=%d typed=%q", inj.Pastes(), inj.Typed())
	}
	if clip.Content() != "original" {
		t.Errorf("clipboard %q not restored", clip.Content())
	}
}

func TestClipboardRestoredWhenPasteFails(t *testing.T) {
	inj := &FakeInjector{PasteErr: errors.New("no focus")}
	clip := NewFakeClipboard("original")
	e := newEngine(inj, clip)

	out := e.Paste(context.Background(), Request{Text: "payload", Mode: ModeClipboard})
	if out.OK() || out.Failure != InjectionFailure {
		t.Fatalf("outcome %+v, want injection failure", out)
	}
	if clip.Content() != "original" {
		t.Errorf("clipboard %q not restored", clip.Content())
	}
	if e.PasteText(context.Background(), "payload", ModeClipboard) {
		t.Error("PasteText reported success for a failing paste")
	}
}

func TestClipboardRestoredWhenWriteFails(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("original")
	clip.FailWrite = func(text string) bool { return text == "payload" }
	e := newEngine(inj, clip)

	out := e.Paste(context.Background(), Request{Text: "payload", Mode: ModeClipboard})
	if out.Failure != ClipboardAccessFailure {
		t.Fatalf("outcome %+v, want clipboard access failure", out)
	}
	if len(inj.Calls()) != 0 {
		t.Errorf("injector used after failed write: %q", inj.Calls())
	}
	if clip.Content() != "original" {
		t.Errorf("clipboard %q, want original", clip.Content())
	}
}

func TestClipboardReadFailureTouchesNothing(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("original")
	clip.ReadErr = errors.New("locked")
	e := newEngine(inj, clip)

	out := e.Paste(context.Background(), Request{Text: "payload", Mode: ModeClipboard})
	if out.Failure != ClipboardAccessFailure || !errors.Is(out.Err, clip.ReadErr) {
		t.Fatalf("outcome %+v, want clipboard access failure", out)
	}
	if len(clip.Writes()) != 0 || len(inj.Calls()) != 0 {
		t.Errorf("writes=%q calls=%q", clip.Writes(), inj.Calls())
	}
}

func TestClipboardWithoutTextIsRestoredEmpty(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("")
	clip.ReadErr = fmt.Errorf("%w: target STRING not available", monitor.ErrNotText)
	e := newEngine(inj, clip)

	out := e.Paste(context.Background(), Request{Text: "payload", Mode: ModeClipboard})
	if !out.OK() {
		t.Fatalf("outcome %+v, want success", out)
	}
	if inj.Pastes() != 1 {
		t.Errorf("pastes = %d, want 1", inj.Pastes())
	}
	if w := clip.Writes(); len(w) != 2 || w[0] != "payload" || w[1] != "" {
		t.Errorf("writes %q, want payload then empty restore", w)
	}
}

func TestRestoreFailureKeepsSuccess(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("original")
	clip.FailWrite = func(text string) bool { return text == "original" }
	e := newEngine(inj, clip)

	if !e.PasteText(context.Background(), "payload", ModeClipboard) {
		t.Error("a failed restore should not fail a delivered paste")
	}
}

func TestOwnWritesReported(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	e := New(Options{
		Injector:  &FakeInjector{},
		Clipboard: NewFakeClipboard("original"),
		OwnWrite: func(text string) {
			mu.Lock()
			seen = append(seen, text)
			mu.Unlock()
		},
	})
	e.PasteText(context.Background(), "payload", ModeClipboard)
	if len(seen) != 2 || seen[0] != "payload" || seen[1] != "original" {
		t.Errorf("own writes %q, want [payload original]", seen)
	}
}

func TestAbortBeforePasteShortcut(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("original")
	var e *Engine
	e = New(Options{
		Injector:  inj,
		Clipboard: clip,
		OwnWrite: func(text string) {
			if text == "payload" {
				e.Abort()
			}
		},
	})

	out := e.Paste(context.Background(), Request{Text: "payload", Mode: ModeClipboard})
	if !out.Aborted() {
		t.Fatalf("outcome %+v, want aborted", out)
	}
	if inj.Pastes() != 0 {
		t.Error("paste shortcut sent after abort")
	}
	if clip.Content() != "original" {
		t.Errorf("clipboard %q not restored", clip.Content())
	}
}

func TestConcurrentPasteIsBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	inj := &FakeInjector{}
	inj.OnType = func(n int) {
		if n == 1 {
			close(entered)
			<-release
		}
	}
	e := newEngine(inj, NewFakeClipboard(""))

	done := make(chan Outcome, 1)
	go func() {
		done <- e.Paste(context.Background(), Request{Text: "first", Mode: ModeTyping})
	}()
	<-entered
	if !e.IsPasting() {
		t.Fatal("expected engine to be pasting")
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := e.Paste(context.Background(), Request{Text: "second", Mode: ModeTyping})
			if out.Failure != Busy {
				t.Errorf("outcome %+v, want busy", out)
			}
		}()
	}
	wg.Wait()
	if calls := inj.Calls(); len(calls) != 1 {
		t.Errorf("busy calls reached the injector: %q", calls)
	}

	close(release)
	if out := <-done; !out.OK() {
		t.Errorf("first paste failed: %+v", out)
	}
	if e.IsPasting() {
		t.Error("engine still pasting after completion")
	}
}

func TestAbortMidTyping(t *testing.T) {
	inj := &FakeInjector{}
	e := newEngine(inj, NewFakeClipboard(""))
	inj.OnType = func(n int) {
		if n == 3 {
			e.Abort()
		}
	}

	out := e.Paste(context.Background(), Request{Text: strings.Repeat("a", 100), Mode: ModeTyping, ChunkSize: 10})
	if !out.Aborted() || out.OK() {
		t.Fatalf("outcome %+v, want aborted", out)
	}
	if got := len(inj.Typed()); got != 3 {
		t.Errorf("typed %d chunks after abort, want 3", got)
	}
	if out.Chars != 30 {
		t.Errorf("chars = %d, want 30", out.Chars)
	}
	if e.State() != Idle {
		t.Errorf("state %s, want idle", e.State())
	}
}

func TestAbortWhileIdle(t *testing.T) {
	e := newEngine(&FakeInjector{}, NewFakeClipboard(""))
	e.Abort()
	if e.State() != Idle {
		t.Fatalf("abort moved idle engine to %s", e.State())
	}
	if !e.PasteText(context.Background(), "ok", ModeTyping) {
		t.Error("paste after idle abort failed")
	}
}

func TestAbortWakesChunkPause(t *testing.T) {
	inj := &FakeInjector{}
	e := newEngine(inj, NewFakeClipboard(""))
	inj.OnType = func(n int) {
		if n == 1 {
			go func() {
				time.Sleep(20 * time.Millisecond)
				e.Abort()
			}()
		}
	}

	start := time.Now()
	out := e.Paste(context.Background(), Request{
		Text: "abcdef", Mode: ModeTyping, ChunkSize: 2, CharInterval: time.Minute,
	})
	if !out.Aborted() {
		t.Fatalf("outcome %+v, want aborted", out)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("abort did not interrupt the pause between chunks")
	}
}

func TestContextCancelStopsTyping(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inj := &FakeInjector{}
	inj.OnType = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	e := newEngine(inj, NewFakeClipboard(""))

	out := e.Paste(ctx, Request{Text: strings.Repeat("b", 50), Mode: ModeTyping, ChunkSize: 10})
	if !out.Aborted() {
		t.Fatalf("outcome %+v, want aborted", out)
	}
	if len(inj.Typed()) != 2 {
		t.Errorf("typed %d chunks, want 2", len(inj.Typed()))
	}
}

func TestInjectionFailureStopsTyping(t *testing.T) {
	inj := &FakeInjector{TypeErr: errors.New("device gone"), FailAfter: 2}
	e := newEngine(inj, NewFakeClipboard(""))

	out := e.Paste(context.Background(), Request{Text: strings.Repeat("c", 50), Mode: ModeTyping, ChunkSize: 10})
	if out.Failure != InjectionFailure || !errors.Is(out.Err, inj.TypeErr) {
		t.Fatalf("outcome %+v, want injection failure", out)
	}
	if len(inj.Typed()) != 2 {
		t.Errorf("typed %d chunks, want 2 before failure", len(inj.Typed()))
	}
	if e.State() != Idle {
		t.Errorf("state %s after failure", e.State())
	}
}

func TestUntypableTextFailsBeforeTyping(t *testing.T) {
	inj := &FakeLineInjector{}
	inj.NoKeys = "é✓"
	e := newEngine(inj, NewFakeClipboard(""))

	text := strings.Repeat("plain ", 10) + "\ncafé"
	out := e.Paste(context.Background(), Request{Text: text, Mode: ModeTyping, ChunkSize: 10})
	if out.OK() || out.Failure != InjectionFailure || !errors.Is(out.Err, errNoKey) {
		t.Fatalf("outcome %+v, want injection failure", out)
	}
	if calls := inj.Calls(); len(calls) != 0 || out.Chars != 0 {
		t.Errorf("injector calls %q, chars %d: want nothing typed", calls, out.Chars)
	}

	out = e.Paste(context.Background(), Request{Text: "Hello, World!", Mode: ModeTyping})
	if !out.OK() || inj.Output() != "Hello, World!" {
		t.Errorf("outcome %+v typed %q", out, inj.Output())
	}
}

func TestPasteStartLogsResolvedMode(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf)
	t.Cleanup(log.Close)

	e := newEngine(&FakeInjector{}, NewFakeClipboard(""))
	e.PasteText(context.Background(), "short", ModeAuto)
	var start string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "paste_start") {
			start = line
		}
	}
	if !strings.Contains(start, "mode=clipboard") || !strings.Contains(start, "requested=auto") {
		t.Errorf("paste_start line %q, want resolved and requested modes", start)
	}
}

func TestEmptyAndWhitespace(t *testing.T) {
	for _, mode := range []Mode{ModeTyping, ModeClipboard, ModeAuto} {
		for _, text := range []string{"", "   ", "\n\t"} {
			inj := &FakeInjector{}
			clip := NewFakeClipboard("original")
			e := newEngine(inj, clip)
			if !e.PasteText(context.Background(), text, mode) {
				t.Errorf("mode %s text %q: want success", mode, text)
			}
			if len(inj.Calls()) != 0 || len(clip.Writes()) != 0 {
				t.Errorf("mode %s text %q: calls=%q writes=%q", mode, text, inj.Calls(), clip.Writes())
			}
		}
	}
}

func TestExplicitLineBreaks(t *testing.T) {
	inj := &FakeLineInjector{}
	e := newEngine(inj, NewFakeClipboard(""))

	out := e.Paste(context.Background(), Request{Text: "Line 1\r\nLine 2\nLine 3", Mode: ModeTyping, ChunkSize: 4})
	if !out.OK() {
		t.Fatalf("paste failed: %+v", out)
	}
	if inj.Enters() != 2 {
		t.Errorf("enters = %d, want 2", inj.Enters())
	}
	if got := inj.Output(); got != "Line 1\nLine 2\nLine 3" {
		t.Errorf("output %q", got)
	}
	for _, s := range inj.Typed() {
		if s != "\n" && strings.ContainsAny(s, "\r\n") {
			t.Errorf("chunk %q spans a line break", s)
		}
	}
}

func TestEnterFailure(t *testing.T) {
	inj := &FakeLineInjector{}
	inj.EnterErr = errors.New("stuck")
	e := newEngine(inj, NewFakeClipboard(""))

	out := e.Paste(context.Background(), Request{Text: "a\nb", Mode: ModeTyping})
	if out.Failure != InjectionFailure {
		t.Fatalf("outcome %+v, want injection failure", out)
	}
	if inj.Output() != "a" {
		t.Errorf("output %q, want only the first line", inj.Output())
	}
}

type fixedLoad float64

func (l fixedLoad) Load() (float64, error) { return float64(l), nil }

func TestAdaptiveIntervalReachesInjector(t *testing.T) {
	inj := &FakeInjector{}
	e := New(Options{
		Injector:  inj,
		Clipboard: NewFakeClipboard(""),
		Rate:      rate.Controller{Base: time.Millisecond, Max: 9 * time.Millisecond, Adaptive: true},
		Load:      fixedLoad(1),
	})
	e.PasteText(context.Background(), "abc", ModeTyping)
	if iv := inj.Intervals(); len(iv) != 1 || iv[0] != 9*time.Millisecond {
		t.Errorf("intervals %v, want [9ms]", iv)
	}

	inj = &FakeInjector{}
	e = New(Options{Injector: inj, Clipboard: NewFakeClipboard(""), Rate: rate.Controller{Base: time.Millisecond}})
	e.Paste(context.Background(), Request{Text: "abc", Mode: ModeTyping, CharInterval: 3 * time.Millisecond})
	if iv := inj.Intervals(); len(iv) != 1 || iv[0] != 3*time.Millisecond {
		t.Errorf("intervals %v, want request interval 3ms", iv)
	}
}

type recent struct {
	entry *history.Entry
	err   error
}

func (r recent) MostRecent(context.Context) (*history.Entry, error) { return r.entry, r.err }

func TestPasteLast(t *testing.T) {
	inj := &FakeInjector{}
	e := newEngine(inj, NewFakeClipboard(""))

	out := e.PasteLast(context.Background(), recent{entry: &history.Entry{Content: "from history"}}, ModeTyping)
	if !out.OK() || inj.Output() != "from history" {
		t.Fatalf("outcome %+v typed %q", out, inj.Output())
	}

	out = e.PasteLast(context.Background(), recent{}, ModeTyping)
	if out.Failure != NothingToPaste {
		t.Errorf("empty history: outcome %+v", out)
	}
	out = e.PasteLast(context.Background(), recent{err: errors.New("db closed")}, ModeTyping)
	if out.Failure != NothingToPaste || out.Err == nil {
		t.Errorf("store error: outcome %+v", out)
	}
}

func TestPastesCounter(t *testing.T) {
	e := newEngine(&FakeInjector{PasteErr: errors.New("x")}, NewFakeClipboard(""))
	e.PasteText(context.Background(), "a", ModeTyping)
	e.PasteText(context.Background(), "b", ModeClipboard)
	if e.Pastes() != 1 {
		t.Errorf("pastes = %d, want 1", e.Pastes())
	}
}

type countQuota struct{ left, asked int }

func (q *countQuota) Allow(chars int) bool {
	q.asked++
	if q.left == 0 {
		return false
	}
	q.left--
	return true
}

func TestQuotaRefusesWithoutSideEffects(t *testing.T) {
	inj := &FakeInjector{}
	clip := NewFakeClipboard("original")
	q := &countQuota{left: 1}
	e := New(Options{Injector: inj, Clipboard: clip, Quota: q})

	if !e.PasteText(context.Background(), "first", ModeTyping) {
		t.Fatal("first paste failed")
	}
	out := e.Paste(context.Background(), Request{Text: "second", Mode: ModeClipboard})
	if out.Failure != RateLimited || out.Mode != ModeClipboard {
		t.Fatalf("outcome %+v, want rate_limited", out)
	}
	if got := inj.Output(); got != "first" {
		t.Errorf("typed %q, want only the first paste", got)
	}
	if len(clip.Writes()) != 0 {
		t.Errorf("clipboard writes %q after refusal", clip.Writes())
	}

	e.PasteText(context.Background(), "  ", ModeTyping)
	if q.asked != 2 {
		t.Errorf("quota asked %d times, want 2 (blank text is free)", q.asked)
	}
	if e.State() != Idle {
		t.Errorf("state %s after refusal", e.State())
	}
}
