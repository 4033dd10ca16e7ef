package render

import (
	"fmt"

	"github.com/aescanero/dago-templates/internal/stringify"
	"github.com/aescanero/dago-templates/internal/template"
)

// MultiSession applies operations to every repetition of a nested
// template, in order. The first failing repetition stops the operation.
type MultiSession struct {
	tmpl     *template.Template
	sessions []*Session
}

func newMultiSession(t *template.Template, sessions []*Session) *MultiSession {
	return &MultiSession{tmpl: t, sessions: sessions}
}

// Template returns the nested template shared by the repetitions
func (m *MultiSession) Template() *template.Template { return m.tmpl }

// Len returns the number of repetitions
func (m *MultiSession) Len() int { return len(m.sessions) }

// Sessions returns the repetitions
func (m *MultiSession) Sessions() []*Session {
	out := make([]*Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Session returns repetition i
func (m *MultiSession) Session(i int) (*Session, error) {
	if i < 0 || i >= len(m.sessions) {
		return nil, &Error{
			Code:     InvalidArgument,
			Template: template.FQName(m.tmpl),
			Err:      fmt.Errorf("repetition %d out of range [0,%d)", i, len(m.sessions)),
		}
	}
	return m.sessions[i], nil
}

func (m *MultiSession) each(fn func(*Session) error) error {
	for _, s := range m.sessions {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// Set sets a variable to the same value in every repetition
func (m *MultiSession) Set(name string, value any) error {
	return m.each(func(s *Session) error { return s.Set(name, value) })
}

// SetWithGroup is Set with a default variable group
func (m *MultiSession) SetWithGroup(name string, group stringify.VarGroup, value any) error {
	return m.each(func(s *Session) error { return s.SetWithGroup(name, group, value) })
}

// SetAt sets a variable in repetition i only
func (m *MultiSession) SetAt(i int, name string, value any) error {
	s, err := m.Session(i)
	if err != nil {
		return err
	}
	return s.Set(name, value)
}

// SetEach sets a dotted path in every repetition
func (m *MultiSession) SetEach(path string, fn func(i int) any) error {
	return m.each(func(s *Session) error { return s.SetEach(path, fn) })
}

// Populate populates a nested template with the same data in every
// repetition
func (m *MultiSession) Populate(name string, data any, names ...string) error {
	return m.each(func(s *Session) error { return s.Populate(name, data, names...) })
}

// PopulateWithGroup is Populate with a default variable group
func (m *MultiSession) PopulateWithGroup(name string, data any, group stringify.VarGroup, names ...string) error {
	return m.each(func(s *Session) error { return s.PopulateWithGroup(name, data, group, names...) })
}

// Populate1 forwards to every repetition
func (m *MultiSession) Populate1(name string, values ...any) error {
	return m.each(func(s *Session) error { return s.Populate1(name, values...) })
}

// Populate2 forwards to every repetition
func (m *MultiSession) Populate2(name string, values ...any) error {
	return m.each(func(s *Session) error { return s.Populate2(name, values...) })
}

// Insert inserts the same data into every repetition
func (m *MultiSession) Insert(data any, names ...string) error {
	return m.each(func(s *Session) error { return s.Insert(data, names...) })
}

// InsertWithGroup is Insert with a default variable group
func (m *MultiSession) InsertWithGroup(data any, group stringify.VarGroup, names ...string) error {
	return m.each(func(s *Session) error { return s.InsertWithGroup(data, group, names...) })
}

// Repeat repeats a nested template n times in every repetition and
// returns all the new repetitions
func (m *MultiSession) Repeat(name string, n int) (*MultiSession, error) {
	return m.collect(func(s *Session) (*MultiSession, error) { return s.Repeat(name, n) })
}

// In returns the repetitions of a nested template across every repetition
func (m *MultiSession) In(path string) (*MultiSession, error) {
	return m.collect(func(s *Session) (*MultiSession, error) { return s.In(path) })
}

func (m *MultiSession) collect(fn func(*Session) (*MultiSession, error)) (*MultiSession, error) {
	var t *template.Template
	var all []*Session
	for _, s := range m.sessions {
		sub, err := fn(s)
		if err != nil {
			return nil, err
		}
		t = sub.tmpl
		all = append(all, sub.sessions...)
	}
	if t == nil {
		t = m.tmpl
	}
	return newMultiSession(t, all), nil
}

// Show forwards to every repetition
func (m *MultiSession) Show(names ...string) error {
	return m.each(func(s *Session) error { return s.Show(names...) })
}

// ShowN forwards to every repetition
func (m *MultiSession) ShowN(n int, names ...string) error {
	return m.each(func(s *Session) error { return s.ShowN(n, names...) })
}

// ShowRecursive forwards to every repetition
func (m *MultiSession) ShowRecursive(names ...string) error {
	return m.each(func(s *Session) error { return s.ShowRecursive(names...) })
}

// Unset forwards to every repetition
func (m *MultiSession) Unset(names ...string) error {
	return m.each(func(s *Session) error { return s.Unset(names...) })
}

// Clear forwards to every repetition
func (m *MultiSession) Clear(names ...string) error {
	return m.each(func(s *Session) error { return s.Clear(names...) })
}

// FullyPopulated reports whether every repetition is fully populated
func (m *MultiSession) FullyPopulated() bool {
	for _, s := range m.sessions {
		if !s.FullyPopulated() {
			return false
		}
	}
	return true
}
