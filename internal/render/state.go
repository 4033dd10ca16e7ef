package render

import (
	"github.com/aescanero/dago-templates/internal/template"
)

// state records the population progress of one template instantiation
type state struct {
	// variables not set yet
	todo map[string]struct{}
	// part index -> stringified value of that occurrence
	values map[int]string
	// one cell per nested template, created with the state. The map is
	// never written afterwards, so different nested templates can be
	// instantiated from different goroutines.
	nested map[*template.Template]*repetitions
	frozen bool
}

// repetitions holds the children of one nested template; the count never
// changes once instantiated
type repetitions struct {
	sessions     []*Session
	instantiated bool
}

func newState(t *template.Template) *state {
	s := &state{
		todo:   make(map[string]struct{}, t.CountVariables()),
		values: make(map[int]string),
		nested: make(map[*template.Template]*repetitions, t.CountNested()),
	}
	for _, name := range t.VariableNames() {
		s.todo[name] = struct{}{}
	}
	for _, nt := range t.NestedTemplates() {
		s.nested[nt] = &repetitions{}
	}
	return s
}

func (s *state) isSet(name string) bool {
	_, pending := s.todo[name]
	return !pending
}

func (s *state) done(name string) {
	delete(s.todo, name)
}

func (s *state) value(partIndex int) (string, bool) {
	v, ok := s.values[partIndex]
	return v, ok
}

func (s *state) instantiated(t *template.Template) bool {
	r, ok := s.nested[t]
	return ok && r.instantiated
}

// children returns the repetitions of t and whether t was instantiated
func (s *state) children(t *template.Template) ([]*Session, bool) {
	r, ok := s.nested[t]
	if !ok || !r.instantiated {
		return nil, false
	}
	return r.sessions, true
}

func (s *state) setChildren(t *template.Template, sessions []*Session) {
	r := s.nested[t]
	r.sessions = sessions
	r.instantiated = true
}

func (s *state) clearChildren(t *template.Template) {
	r := s.nested[t]
	r.sessions = nil
	r.instantiated = false
}

// freeze marks the whole subtree read-only
func (s *state) freeze() {
	s.frozen = true
	for _, r := range s.nested {
		for _, c := range r.sessions {
			c.state.freeze()
		}
	}
}
