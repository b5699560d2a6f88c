package main

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"pasta/config"
	"pasta/engine"
	"pasta/history"
	"pasta/hotkey"
	"pasta/log"
	"pasta/monitor"
	"pasta/sensitive"
)

// pruneInterval is how often the retention rules run while a session is
// up. Every capture also prunes by count.
const pruneInterval = time.Hour

// releaseGrace lets the user let go of the paste-last combo before the
// first keystroke goes out, so held modifiers do not bend the text.
const releaseGrace = 250 * time.Millisecond

// session is one "pasta run": the monitor feeds history, the hotkeys
// drive the engine.
type session struct {
	settings config.Settings
	mode     engine.Mode
	engine   *engine.Engine
	monitor  *monitor.Monitor // nil when monitoring is off
	store    *history.Store
	detector *sensitive.Detector
	excluded []*regexp.Regexp
	out      io.Writer
	grace    time.Duration

	pasteLast hotkey.Hotkey // nil when disabled
	abort     hotkey.Hotkey // nil when disabled

	wg sync.WaitGroup // pastes started from the hotkey

	// observers for the headless test mode
	onCapture func(history.Entry)
	onPaste   func(engine.Outcome)
}

type sessionDeps struct {
	store     *history.Store
	injector  engine.Injector
	clipboard engine.Clipboard
	pasteLast hotkey.Hotkey
	abort     hotkey.Hotkey
	out       io.Writer
}

func newSession(a *app, d sessionDeps) (*session, error) {
	st := a.settings
	excluded, err := st.Privacy.Excluded()
	if err != nil {
		return nil, fmt.Errorf("privacy.excluded_patterns: %w", err)
	}
	s := &session{
		settings: st,
		mode:     a.mode(),
		store:    d.store,
		detector: sensitive.New(),
		excluded: excluded,
		out:      d.out,
		grace:    releaseGrace,
	}
	var own func(string)
	if st.Monitor.Enabled {
		s.monitor = monitor.New(monitor.Options{
			Source:          d.clipboard,
			PollInterval:    st.Monitor.PollInterval,
			CallbackTimeout: st.Monitor.CallbackTimeout,
			ReadRetryBudget: st.Monitor.ReadRetryBudget,
		})
		own = s.monitor.Ignore
	}
	s.engine = a.newEngine(d.injector, d.clipboard, own)
	if st.Hotkeys.PasteLast {
		s.pasteLast = d.pasteLast
	}
	if st.Hotkeys.EmergencyStop {
		s.abort = d.abort
	}
	return s, nil
}

// serve runs until ctx ends. In-flight pastes see the same ctx and stop
// with it.
func (s *session) serve(ctx context.Context) error {
	log.SessionStart(string(s.mode), s.monitor != nil)
	defer func() {
		s.wg.Wait()
		log.SessionEnd(int(s.engine.Pastes()))
	}()

	if s.monitor != nil {
		s.monitor.Register(s.capture)
		s.monitor.OnFailure(func(n int, err error) {
			fmt.Fprintf(s.out, "clipboard unreadable after %d attempts: %v\n", n, err)
		})
		if err := s.monitor.Start(ctx); err != nil {
			return err
		}
		defer s.monitor.Stop()
	}

	if s.pasteLast != nil {
		if err := s.pasteLast.Register(); err != nil {
			return fmt.Errorf("paste-last hotkey: %w", err)
		}
		defer s.pasteLast.Unregister()
		go hotkey.Watch(ctx, s.pasteLast, func() { s.pasteNewest(ctx) })
	}

	if s.abort != nil {
		if err := s.abort.Register(); err != nil {
			return fmt.Errorf("abort hotkey: %w", err)
		}
		defer s.abort.Unregister()
		go watchAbort(ctx, s.engine, s.abort)
	}

	s.prune(ctx)
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.prune(ctx)
		}
	}
}

// capture is the monitor callback: new text goes into history unless it
// looks like a secret and privacy rules say to skip it. Skips never log
// the content.
func (s *session) capture(snap monitor.Snapshot) {
	if snap.Kind != monitor.KindText {
		return
	}
	if s.settings.Privacy.Mode {
		log.Info("privacy mode: clipboard change not recorded")
		return
	}
	for _, re := range s.excluded {
		if re.MatchString(snap.Content) {
			log.Infof("skipped clipboard content matching excluded pattern %q", re.String())
			return
		}
	}
	types := s.detector.Types(snap.Content)
	if len(types) > 0 && s.settings.Privacy.SkipSensitive {
		log.Infof("skipped sensitive clipboard content (%s)", strings.Join(types, ", "))
		return
	}

	ctx := context.Background()
	e := history.Entry{
		Content:     snap.Content,
		Fingerprint: snap.Fingerprint,
		Sensitive:   len(types) > 0,
		CreatedAt:   snap.ObservedAt,
	}
	id, err := s.store.SaveEntry(ctx, e)
	if err != nil {
		log.Errorf("history save failed: %v", err)
		return
	}
	e.ID = id
	if e.ContentType == "" {
		e.ContentType = history.Classify(e.Content)
	}
	s.prune(ctx)
	if s.onCapture != nil {
		s.onCapture(e)
	}
}

func (s *session) prune(ctx context.Context) {
	maxAge := time.Duration(s.settings.History.RetentionDays) * 24 * time.Hour
	n, err := s.store.Prune(ctx, s.settings.History.Size, maxAge)
	if err != nil {
		log.Errorf("history prune failed: %v", err)
		return
	}
	if n > 0 {
		log.Infof("pruned %d history entries", n)
	}
}

// pasteNewest starts a paste of the newest history entry without
// blocking the hotkey loop. A press during a paste comes back Busy.
func (s *session) pasteNewest(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.grace > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.grace):
			}
		}
		out := s.engine.PasteLast(ctx, s.store, s.mode)
		if !out.OK() {
			log.Warnf("paste last: %s", out.Failure)
		}
		if s.onPaste != nil {
			s.onPaste(out)
		}
	}()
}

// watchAbort stops the running paste when the abort key is double
// tapped. Taps while idle are ignored.
func watchAbort(ctx context.Context, e *engine.Engine, hk hotkey.Hotkey) {
	dt := hotkey.NewDoubleTap(hotkey.DoubleTapWindow)
	go dt.Run(ctx, hk)
	for {
		select {
		case <-ctx.Done():
			return
		case <-dt.Fired():
			if e.IsPasting() {
				log.Info("emergency stop")
				e.Abort()
			}
		}
	}
}

// describe renders an outcome for the terminal.
func describe(out engine.Outcome) string {
	if out.OK() {
		if out.Mode == engine.ModeClipboard {
			return fmt.Sprintf("pasted %d chars via clipboard", out.Chars)
		}
		return fmt.Sprintf("typed %d chars in %d chunks", out.Chars, out.Chunks)
	}
	if out.Err != nil {
		return fmt.Sprintf("paste failed (%s): %v", out.Failure, out.Err)
	}
	return fmt.Sprintf("paste failed (%s)", out.Failure)
}
