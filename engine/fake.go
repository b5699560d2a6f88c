package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// FakeInjector records every call. Set TypeErr, PasteErr or EnterErr to
// make the matching call fail, and OnType to run code inside Type.
type FakeInjector struct {
	mu        sync.Mutex
	typed     []string
	intervals []time.Duration
	pastes    int
	enters    int
	calls     []string

	TypeErr  error
	PasteErr error
	EnterErr error
	// FailAfter makes Type fail once this many calls have succeeded. Zero
	// disables it.
	FailAfter int
	OnType    func(n int)
	// NoKeys lists characters the fake keyboard cannot type.
	NoKeys string
}

// Check fails when text holds a character from NoKeys.
func (f *FakeInjector) Check(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := strings.IndexAny(text, f.NoKeys); i >= 0 {
		return fmt.Errorf("%w: %q", errNoKey, []rune(text[i:])[0])
	}
	return nil
}

func (f *FakeInjector) Type(text string, interval time.Duration) error {
	f.mu.Lock()
	n := len(f.typed)
	if f.TypeErr != nil && (f.FailAfter == 0 || n >= f.FailAfter) {
		f.mu.Unlock()
		return f.TypeErr
	}
	f.typed = append(f.typed, text)
	f.intervals = append(f.intervals, interval)
	f.calls = append(f.calls, "type")
	hook := f.OnType
	f.mu.Unlock()
	if hook != nil {
		hook(n + 1)
	}
	return nil
}

func (f *FakeInjector) Paste() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "paste")
	if f.PasteErr != nil {
		return f.PasteErr
	}
	f.pastes++
	return nil
}

func (f *FakeInjector) Typed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.typed...)
}

func (f *FakeInjector) Intervals() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.intervals...)
}

func (f *FakeInjector) Pastes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pastes
}

func (f *FakeInjector) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FakeLineInjector is a FakeInjector that needs explicit Return presses.
type FakeLineInjector struct {
	FakeInjector
}

func (f *FakeLineInjector) Enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "enter")
	if f.EnterErr != nil {
		return f.EnterErr
	}
	f.enters++
	f.typed = append(f.typed, "\n")
	return nil
}

func (f *FakeLineInjector) Enters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enters
}

// Output joins everything typed, with each Return press as "\n".
func (f *FakeInjector) Output() string {
	return strings.Join(f.Typed(), "")
}

var (
	errWriteRejected = errors.New("clipboard write rejected")
	errNoKey         = errors.New("no key for character")
)

// FakeClipboard is an in-memory clipboard that logs writes.
type FakeClipboard struct {
	mu      sync.Mutex
	content string
	writes  []string

	ReadErr  error
	WriteErr error
	// FailWrite, when set, decides per write whether it fails.
	FailWrite func(text string) bool
}

func NewFakeClipboard(content string) *FakeClipboard {
	return &FakeClipboard{content: content}
}

func (c *FakeClipboard) Read() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return "", c.ReadErr
	}
	return c.content, nil
}

func (c *FakeClipboard) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	if c.FailWrite != nil && c.FailWrite(text) {
		return errWriteRejected
	}
	c.content = text
	c.writes = append(c.writes, text)
	return nil
}

func (c *FakeClipboard) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

func (c *FakeClipboard) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}
