package snippet

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pasta/log"
)

const fileVersion = 1

type file struct {
	Version    int        `json:"version"`
	ExportedAt *time.Time `json:"exported_at,omitempty"`
	Snippets   []Snippet  `json:"snippets"`
}

// Manager owns the snippet collection and writes it back to disk after
// every change. It is safe for concurrent use.
type Manager struct {
	path  string
	now   func() time.Time
	newID func() string

	mu       sync.RWMutex
	snippets map[string]*Snippet
}

// Open loads the collection at path. A missing file is an empty
// collection.
func Open(path string) (*Manager, error) {
	m := &Manager{
		path:     path,
		now:      time.Now,
		newID:    uuid.NewString,
		snippets: make(map[string]*Snippet),
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snippets: %w", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse snippets %s: %w", path, err)
	}
	for i := range f.Snippets {
		s := f.Snippets[i]
		s.normalize()
		m.snippets[s.ID] = &s
	}
	return m, nil
}

// Add validates s, assigns an id and timestamps, and stores it.
func (m *Manager) Add(s Snippet) (Snippet, error) {
	s.normalize()
	if err := s.Validate(); err != nil {
		return Snippet{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hotkeyFreeLocked(s.Hotkey, ""); err != nil {
		return Snippet{}, err
	}
	now := m.now()
	s.ID = m.newID()
	s.CreatedAt, s.UpdatedAt = now, now
	s.UseCount = 0
	m.snippets[s.ID] = &s
	if err := m.saveLocked(); err != nil {
		delete(m.snippets, s.ID)
		return Snippet{}, err
	}
	return s.clone(), nil
}

func (m *Manager) Get(id string) (Snippet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snippets[id]
	if !ok {
		return Snippet{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.clone(), nil
}

// Update applies u to the snippet with id. The stored snippet is left
// untouched when the result would be invalid.
func (m *Manager) Update(id string, u Update) (Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.snippets[id]
	if !ok {
		return Snippet{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := cur.clone()
	next.apply(u)
	next.normalize()
	if err := next.Validate(); err != nil {
		return Snippet{}, err
	}
	if err := m.hotkeyFreeLocked(next.Hotkey, id); err != nil {
		return Snippet{}, err
	}
	next.UpdatedAt = m.now()
	prev := *cur
	*cur = next
	if err := m.saveLocked(); err != nil {
		*cur = prev
		return Snippet{}, err
	}
	return next.clone(), nil
}

func (m *Manager) Delete(id string) error {
	if m.BulkDelete([]string{id}) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// BulkDelete removes every listed snippet and returns how many existed.
func (m *Manager) BulkDelete(ids []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.snippets[id]; ok {
			delete(m.snippets, id)
			n++
		}
	}
	if n > 0 {
		m.persistLocked()
	}
	return n
}

// DeleteCategory removes every snippet in category.
func (m *Manager) DeleteCategory(category string) int {
	var ids []string
	for _, s := range m.ByCategory(category) {
		ids = append(ids, s.ID)
	}
	return m.BulkDelete(ids)
}

// BulkUpdateCategory moves the listed snippets to category.
func (m *Manager) BulkUpdateCategory(ids []string, category string) int {
	if category == "" {
		category = DefaultCategory
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, id := range ids {
		if s, ok := m.snippets[id]; ok {
			s.Category = category
			s.UpdatedAt = now
			n++
		}
	}
	if n > 0 {
		m.persistLocked()
	}
	return n
}

// Use records one use of the snippet and returns it.
func (m *Manager) Use(id string) (Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snippets[id]
	if !ok {
		return Snippet{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.UseCount++
	s.UpdatedAt = m.now()
	m.persistLocked()
	return s.clone(), nil
}

// All returns every snippet sorted by name.
func (m *Manager) All() []Snippet {
	return m.filter(func(*Snippet) bool { return true })
}

func (m *Manager) ByCategory(category string) []Snippet {
	return m.filter(func(s *Snippet) bool { return s.Category == category })
}

func (m *Manager) ByTag(tag string) []Snippet {
	return m.filter(func(s *Snippet) bool { return slices.Contains(s.Tags, tag) })
}

// Search matches q against name, content and tags, ignoring case.
func (m *Manager) Search(q string) []Snippet {
	q = strings.ToLower(q)
	return m.filter(func(s *Snippet) bool { return s.matches(q) })
}

// ByHotkey finds the snippet bound to hotkey.
func (m *Manager) ByHotkey(hotkey string) (Snippet, bool) {
	hotkey = strings.ToLower(hotkey)
	found := m.filter(func(s *Snippet) bool { return s.Hotkey != "" && s.Hotkey == hotkey })
	if len(found) == 0 {
		return Snippet{}, false
	}
	return found[0], true
}

// Categories lists the distinct categories in order.
func (m *Manager) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, s := range m.snippets {
		out = append(out, s.Category)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// MostUsed returns up to limit snippets with the highest use count.
func (m *Manager) MostUsed(limit int) []Snippet {
	all := m.All()
	slices.SortStableFunc(all, func(a, b Snippet) int { return cmp.Compare(b.UseCount, a.UseCount) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Render returns the snippet content with vars substituted.
func (m *Manager) Render(id string, vars map[string]string) (string, error) {
	s, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return Render(s.Content, vars), nil
}

// FromTemplate adds a new snippet named name built from a template.
func (m *Manager) FromTemplate(templateID, name string, vars map[string]string) (Snippet, error) {
	t, err := m.Get(templateID)
	if err != nil {
		return Snippet{}, err
	}
	return m.Add(Snippet{
		Name:     name,
		Content:  Render(t.Content, vars),
		Category: t.Category,
		Tags:     slices.Clone(t.Tags),
	})
}

func (m *Manager) filter(keep func(*Snippet) bool) []Snippet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snippet
	for _, s := range m.snippets {
		if keep(s) {
			out = append(out, s.clone())
		}
	}
	slices.SortFunc(out, func(a, b Snippet) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (m *Manager) hotkeyFreeLocked(hotkey, self string) error {
	if hotkey == "" {
		return nil
	}
	for id, s := range m.snippets {
		if id != self && s.Hotkey == hotkey {
			return fmt.Errorf("%w: %s is bound to %q", ErrHotkeyInUse, hotkey, s.Name)
		}
	}
	return nil
}

// Export writes every snippet as versioned JSON.
func (m *Manager) Export(w io.Writer) error {
	now := m.now().UTC()
	f := file{Version: fileVersion, ExportedAt: &now, Snippets: m.All()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("export snippets: %w", err)
	}
	return nil
}

// Import reads an export. With merge, snippets whose id already exists
// are kept as they are. Without it the collection is replaced. The
// count includes skipped snippets. Nothing changes if any snippet is
// invalid.
func (m *Manager) Import(r io.Reader, merge bool) (int, error) {
	var f file
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return 0, fmt.Errorf("%w: import: %w", ErrValidation, err)
	}
	if f.Version < 1 || f.Version > fileVersion {
		return 0, fmt.Errorf("%w: import: unsupported version %d", ErrValidation, f.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string]*Snippet)
	if merge {
		for id, s := range m.snippets {
			next[id] = s
		}
	}
	now := m.now()
	count := 0
	for i := range f.Snippets {
		s := f.Snippets[i]
		count++
		if merge && m.snippets[s.ID] != nil {
			continue
		}
		s.normalize()
		if err := s.Validate(); err != nil {
			return 0, fmt.Errorf("import snippet %d: %w", i, err)
		}
		if s.ID == "" {
			s.ID = m.newID()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = s.CreatedAt
		}
		for id, o := range next {
			if id != s.ID && s.Hotkey != "" && o.Hotkey == s.Hotkey {
				return 0, fmt.Errorf("import snippet %q: %w: %s", s.Name, ErrHotkeyInUse, s.Hotkey)
			}
		}
		next[s.ID] = &s
	}

	prev := m.snippets
	m.snippets = next
	if err := m.saveLocked(); err != nil {
		m.snippets = prev
		return 0, err
	}
	return count, nil
}

// persistLocked saves and logs a failure. Used where the in-memory change
// should stand even when the disk write fails.
func (m *Manager) persistLocked() {
	if err := m.saveLocked(); err != nil {
		log.Errorf("saving snippets: %v", err)
	}
}

func (m *Manager) saveLocked() error {
	list := make([]Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b Snippet) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	data, err := json.MarshalIndent(file{Version: fileVersion, Snippets: list}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snippets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create snippets directory: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write snippets: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("write snippets: %w", err)
	}
	return nil
}
