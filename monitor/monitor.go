// Package monitor watches the system clipboard and tells listeners when
// its text changes.
package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pasta/log"
)

const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultCallbackTimeout = 2 * time.Second
	DefaultReadRetryBudget = 3
)

var (
	ErrRunning = errors.New("monitor already running")
	// ErrNotText is returned by a Source whose clipboard holds something
	// other than text.
	ErrNotText = errors.New("clipboard does not hold text")
)

type Kind string

const (
	KindText  Kind = "text"
	KindOther Kind = "other"
)

// Snapshot is one observed clipboard state. It is never modified after
// it is handed to listeners.
type Snapshot struct {
	Content     string
	Kind        Kind
	Fingerprint string
	ObservedAt  time.Time
}

// Source is where the monitor reads clipboard text from.
type Source interface {
	Read() (string, error)
}

type Callback func(Snapshot)

// FailureFunc is told when reads have failed failures times in a row.
type FailureFunc func(failures int, err error)

type Options struct {
	Source          Source
	PollInterval    time.Duration
	CallbackTimeout time.Duration
	ReadRetryBudget int
}

type listener struct {
	id int
	fn Callback
}

type Monitor struct {
	src      Source
	interval time.Duration
	timeout  time.Duration
	budget   int
	now      func() time.Time

	mu        sync.Mutex // guards listeners, onFailure, nextID
	listeners []listener
	nextID    int
	onFailure FailureFunc

	fpMu   sync.Mutex
	lastFP string

	// owned by the poll goroutine
	failures int
	reported bool

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) *Monitor {
	m := &Monitor{
		src:      opts.Source,
		interval: opts.PollInterval,
		timeout:  opts.CallbackTimeout,
		budget:   opts.ReadRetryBudget,
		now:      time.Now,
	}
	if m.interval <= 0 {
		m.interval = DefaultPollInterval
	}
	if m.timeout <= 0 {
		m.timeout = DefaultCallbackTimeout
	}
	if m.budget <= 0 {
		m.budget = DefaultReadRetryBudget
	}
	return m
}

// Fingerprint identifies content for change detection. It is not a
// security boundary.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Register adds fn to the end of the listener list. The returned func
// removes it again and is safe to call more than once.
func (m *Monitor) Register(fn Callback) (unregister func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Monitor) OnFailure(fn FailureFunc) {
	m.mu.Lock()
	m.onFailure = fn
	m.mu.Unlock()
}

// Ignore records content as already seen, so a write the caller makes
// itself is not reported as a change.
func (m *Monitor) Ignore(content string) {
	m.fpMu.Lock()
	m.lastFP = Fingerprint(content)
	m.fpMu.Unlock()
}

// Start polls in a new goroutine until Stop is called or ctx ends.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.done != nil {
		select {
		case <-m.done:
		default:
			return ErrRunning
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)
	log.Infof("clipboard monitor started, interval %s", m.interval)
	return nil
}

// Stop halts polling and waits for the loop to exit. Calling it when the
// monitor is not running does nothing.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info("clipboard monitor stopped")
}

func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll runs one read-compare-dispatch cycle.
func (m *Monitor) poll(ctx context.Context) {
	content, err := m.src.Read()
	kind := KindText
	switch {
	case errors.Is(err, ErrNotText):
		kind, content = KindOther, ""
	case err != nil:
		m.readFailed(err)
		return
	}
	m.failures, m.reported = 0, false

	var fp string
	if kind == KindText {
		if strings.TrimSpace(content) == "" {
			return
		}
		fp = Fingerprint(content)
	} else {
		fp = Fingerprint("\x00" + string(KindOther))
	}

	m.fpMu.Lock()
	if fp == m.lastFP {
		m.fpMu.Unlock()
		return
	}
	m.lastFP = fp
	m.fpMu.Unlock()

	snap := Snapshot{Content: content, Kind: kind, Fingerprint: fp, ObservedAt: m.now()}
	log.ClipboardChange(string(kind), len(content), fp)
	m.dispatch(ctx, snap)
}

func (m *Monitor) readFailed(err error) {
	m.failures++
	if m.failures < m.budget || m.reported {
		return
	}
	m.reported = true
	log.MonitorFailure(m.failures, err)

	m.mu.Lock()
	fn := m.onFailure
	m.mu.Unlock()
	if fn != nil {
		n := m.failures
		m.call(context.Background(), "failure", func() { fn(n, err) })
	}
}

func (m *Monitor) dispatch(ctx context.Context, snap Snapshot) {
	m.mu.Lock()
	ls := append([]listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range ls {
		if ctx.Err() != nil {
			return
		}
		fn := l.fn
		m.call(ctx, fmt.Sprintf("listener %d", l.id), func() { fn(snap) })
	}
}

// call runs fn in its own goroutine and waits at most the callback
// timeout. A panic is logged and swallowed. A callback that overruns is
// left to finish on its own.
func (m *Monitor) call(ctx context.Context, name string, fn func()) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("clipboard %s panicked: %v", name, r)
			}
		}()
		fn()
	}()

	t := time.NewTimer(m.timeout)
	defer t.Stop()
	select {
	case <-finished:
	case <-t.C:
		log.Warnf("clipboard %s exceeded %s, continuing without it", name, m.timeout)
	case <-ctx.Done():
	}
}
