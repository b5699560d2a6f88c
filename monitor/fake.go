package monitor

import "sync"

// FakeSource is a scripted clipboard for tests.
type FakeSource struct {
	mu      sync.Mutex
	content string
	err     error
	reads   int
}

func (f *FakeSource) Set(content string) {
	f.mu.Lock()
	f.content, f.err = content, nil
	f.mu.Unlock()
}

func (f *FakeSource) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeSource) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.content, f.err
}

func (f *FakeSource) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}
