// Package snippet stores reusable text snippets in a JSON file.
package snippet

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("snippet not found")
	ErrHotkeyInUse = errors.New("hotkey already in use")
	ErrValidation  = errors.New("invalid snippet")
)

const DefaultCategory = "general"

type Snippet struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Hotkey     string    `json:"hotkey"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UseCount   int       `json:"use_count"`
	IsTemplate bool      `json:"is_template"`
}

// Update lists the fields to change. Nil fields are left alone.
type Update struct {
	Name       *string
	Content    *string
	Category   *string
	Hotkey     *string
	Tags       *[]string
	IsTemplate *bool
}

var hotkeyRE = regexp.MustCompile(`^(ctrl|cmd|alt|shift)(\+(ctrl|cmd|alt|shift))*\+\w+$`)

// ValidateHotkey checks a combo such as "ctrl+shift+v". Empty is valid
// and means no hotkey.
func ValidateHotkey(h string) error {
	if h == "" {
		return nil
	}
	if !hotkeyRE.MatchString(strings.ToLower(h)) {
		return fmt.Errorf("%w: hotkey %q must look like ctrl+shift+k", ErrValidation, h)
	}
	return nil
}

// Validate reports the first problem with s.
func (s *Snippet) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrValidation)
	}
	if strings.TrimSpace(s.Content) == "" {
		return fmt.Errorf("%w: content is empty", ErrValidation)
	}
	return ValidateHotkey(s.Hotkey)
}

func (s *Snippet) normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Hotkey = strings.ToLower(strings.TrimSpace(s.Hotkey))
	if s.Category == "" {
		s.Category = DefaultCategory
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
}

func (s *Snippet) apply(u Update) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Content != nil {
		s.Content = *u.Content
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.Hotkey != nil {
		s.Hotkey = *u.Hotkey
	}
	if u.Tags != nil {
		s.Tags = slices.Clone(*u.Tags)
	}
	if u.IsTemplate != nil {
		s.IsTemplate = *u.IsTemplate
	}
}

func (s *Snippet) matches(q string) bool {
	if strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Content), q) {
		return true
	}
	for _, t := range s.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Render substitutes {{key}} placeholders in content. Unknown
// placeholders are left as they are.
func Render(content string, vars map[string]string) string {
	if len(vars) == 0 {
		return content
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

func (s Snippet) clone() Snippet {
	s.Tags = slices.Clone(s.Tags)
	return s
}
