// Package sensitive spots secrets in clipboard text so they can be kept
// out of history.
package sensitive

import (
	"fmt"
	"regexp"
	"sync"
)

const Redacted = "[REDACTED]"

type pattern struct {
	name string
	re   *regexp.Regexp
}

// Detector matches text against named patterns. Patterns are checked in
// the order they were added. It is safe for concurrent use.
type Detector struct {
	mu       sync.RWMutex
	patterns []pattern
}

// New returns a detector with the built-in patterns.
func New() *Detector {
	d := &Detector{}
	for _, p := range builtin {
		d.patterns = append(d.patterns, pattern{p[0], regexp.MustCompile(p[1])})
	}
	return d
}

var builtin = [][2]string{
	{"credit_card", `\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b|\b\d{3} \d{2} \d{4}\b`},
	{"email", `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`},
	{"password", `(?i)(password|passwd|pwd)[\s:=]+\S+`},
	{"api_key", `(?i)(api[-_]?key|apikey|secret)[\s:=]+\S+`},
	{"private_key", `-----BEGIN\s+(RSA|EC|OPENSSH)?\s*PRIVATE KEY-----`},
}

// Add registers an extra pattern. An existing name is replaced.
func (d *Detector) Add(name, expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", name, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range d.patterns {
		if p.name == name {
			d.patterns[i].re = re
			return nil
		}
	}
	d.patterns = append(d.patterns, pattern{name, re})
	return nil
}

func (d *Detector) IsSensitive(text string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Types lists the names of every pattern that matches text.
func (d *Detector) Types(text string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	for _, p := range d.patterns {
		if p.re.MatchString(text) {
			out = append(out, p.name)
		}
	}
	return out
}

// Redact replaces every match with Redacted.
func (d *Detector) Redact(text string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.patterns {
		text = p.re.ReplaceAllLiteralString(text, Redacted)
	}
	return text
}
