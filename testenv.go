package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"pasta/engine"
	"pasta/history"
	"pasta/hotkey"
	"pasta/log"
)

// syncWriter serialises writes from the engine and the stdin driver.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// echoInjector prints what a real keyboard would send, keeping the real
// per-character timing so aborts land mid-paste.
type echoInjector struct {
	out  io.Writer
	clip engine.Clipboard
}

func (e echoInjector) Type(text string, interval time.Duration) error {
	time.Sleep(time.Duration(len([]rune(text))) * interval)
	fmt.Fprintf(e.out, "typed %q\n", text)
	return nil
}

func (e echoInjector) Enter() error {
	fmt.Fprintln(e.out, "enter")
	return nil
}

func (e echoInjector) Paste() error {
	text, err := e.clip.Read()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "pasted %q\n", text)
	return nil
}

// runTestMode drives a session from stdin with an in-memory clipboard,
// an echoing keyboard and simulated hotkeys. Commands:
//
//	COPY <text>    put text on the clipboard (Go string escapes allowed)
//	WAIT_CAPTURE   block until the next entry is stored
//	PASTE_LAST     press the paste-last hotkey
//	ESC            press the abort key once
//	WAIT_PASTE     block until the next hotkey paste finishes
//	SLEEP <ms>
//	QUIT
func runTestMode(parent context.Context, a *app, stdin io.Reader, stdout io.Writer) error {
	out := &syncWriter{w: stdout}

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	clip := engine.NewFakeClipboard("")
	pasteKey, abortKey := hotkey.NewFake(), hotkey.NewFake()
	captured := make(chan history.Entry, 16)
	pasted := make(chan engine.Outcome, 16)

	s, err := newSession(a, sessionDeps{
		store:     store,
		injector:  echoInjector{out: out, clip: clip},
		clipboard: clip,
		pasteLast: pasteKey,
		abort:     abortKey,
		out:       out,
	})
	if err != nil {
		return err
	}
	s.grace = 0
	s.onCapture = func(e history.Entry) {
		fmt.Fprintf(out, "captured %d %s\n", e.ID, e.ContentType)
		captured <- e
	}
	s.onPaste = func(o engine.Outcome) {
		fmt.Fprintln(out, describe(o))
		pasted <- o
	}

	ctx, cancel := context.WithCancel(parent)
	served := make(chan error, 1)
	go func() { served <- s.serve(ctx) }()

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "":
		case cmd == "QUIT":
			cancel()
			return <-served
		case cmd == "WAIT_CAPTURE":
			<-captured
		case cmd == "WAIT_PASTE":
			<-pasted
		case cmd == "PASTE_LAST":
			pasteKey.SimTap()
		case cmd == "ESC":
			abortKey.SimTap()
		case strings.HasPrefix(cmd, "COPY "):
			text := cmd[len("COPY "):]
			if u, err := strconv.Unquote(`"` + text + `"`); err == nil {
				text = u
			}
			clip.Write(text)
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[len("SLEEP "):]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		default:
			log.Warnf("test mode: unknown command %q", cmd)
		}
	}
	cancel()
	return <-served
}
