package render

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/aescanero/dago-templates/internal/access"
	"github.com/aescanero/dago-templates/internal/stringify"
	"github.com/aescanero/dago-templates/internal/template"
)

// Session populates one instantiation of a template and renders it.
// Rendering freezes the session and everything below it; a frozen session
// renders the same output any number of times and rejects every mutation
// except Unset and Clear.
//
// A Session is not safe for concurrent mutation of the same subtree.
// Different nested templates of a session, and sessions over a shared
// Template, may be populated from different goroutines.
type Session struct {
	tmpl  *template.Template
	cfg   *config
	state *state
}

// NewSession creates a session for a template
func NewSession(tmpl *template.Template, opts ...Option) *Session {
	return newSession(tmpl, newConfig(opts))
}

func newSession(t *template.Template, cfg *config) *Session {
	return &Session{tmpl: t, cfg: cfg, state: newState(t)}
}

// Template returns the template the session renders
func (s *Session) Template() *template.Template {
	return s.tmpl
}

func (s *Session) fail(code ErrorCode, name string, err error) error {
	return &Error{Code: code, Template: template.FQName(s.tmpl), Name: name, Err: err}
}

func (s *Session) mutable() error {
	if s.state.frozen {
		return s.fail(Frozen, "", nil)
	}
	return nil
}

func (s *Session) nested(name string) (*template.Template, error) {
	t, ok := s.tmpl.Nested(name)
	if !ok {
		return nil, s.fail(NoSuchTemplate, name, nil)
	}
	return t, nil
}

// Set sets every occurrence of a variable. Each occurrence is stringified
// on its own, so occurrences with different inline groups can render
// differently. Setting access.Undefined is a no-op.
func (s *Session) Set(name string, value any) error {
	return s.set(name, value, stringify.None)
}

// SetWithGroup is Set with a default variable group for occurrences that
// have no inline group
func (s *Session) SetWithGroup(name string, group stringify.VarGroup, value any) error {
	return s.set(name, value, group)
}

func (s *Session) set(name string, value any, group stringify.VarGroup) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if access.IsUndefined(value) {
		return nil
	}
	if !s.tmpl.HasVariable(name) {
		return s.fail(NoSuchVariable, name, nil)
	}
	if s.state.isSet(name) {
		return s.fail(AlreadySet, name, nil)
	}

	indices := s.tmpl.VariableIndices(name)
	out := make([]string, len(indices))
	for j, i := range indices {
		str, err := s.stringify(s.tmpl.Part(i).(*template.VariablePart), group, value)
		if err != nil {
			return err
		}
		out[j] = str
	}
	for j, i := range indices {
		s.state.values[i] = out[j]
	}
	s.state.done(name)
	return nil
}

func (s *Session) stringify(part *template.VariablePart, group stringify.VarGroup, value any) (str string, err error) {
	g := stringify.VarGroup(part.Group())
	if g == stringify.None {
		g = group
	}
	if g == stringify.Def {
		if p, ok := part.Placeholder(); ok && stringify.IsNil(value) {
			return p, nil
		}
		if group == stringify.Def {
			group = stringify.None
		}
	}

	sf, err := s.cfg.stringifiers.Lookup(s.tmpl, part, group, value)
	if err != nil {
		return "", s.fail(NoStringifierForGroup, part.Name(), err)
	}

	defer func() {
		if r := recover(); r != nil {
			str, err = "", s.fail(BadStringifier, part.Name(), fmt.Errorf("%v", r))
		}
	}()
	str, err = sf.Stringify(value)
	if err != nil {
		return "", s.fail(StringifierFailed, part.Name(), err)
	}
	return str, nil
}

// SetEach sets a variable in every repetition of a nested template. path
// is "tmpl.var" (or deeper); fn receives the repetition index. A nested
// template that was never instantiated gets one repetition.
func (s *Session) SetEach(path string, fn func(i int) any) error {
	if fn == nil {
		return s.fail(InvalidArgument, path, fmt.Errorf("value function is nil"))
	}
	if s.tmpl.HasVariable(path) {
		return s.set(path, fn(0), stringify.None)
	}
	name, rest, ok := strings.Cut(path, ".")
	if !ok {
		return s.fail(NoSuchVariable, path, nil)
	}
	if err := s.mutable(); err != nil {
		return err
	}
	t, err := s.nested(name)
	if err != nil {
		return err
	}
	children, ok := s.state.children(t)
	if !ok {
		if children, err = s.instantiate(t, 1); err != nil {
			return err
		}
	}
	for i, c := range children {
		if t.HasVariable(rest) {
			err = c.set(rest, fn(i), stringify.None)
		} else {
			err = c.SetEach(rest, fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// instantiate fixes the repetition count of a nested template, or checks
// it against the count fixed before
func (s *Session) instantiate(t *template.Template, n int) ([]*Session, error) {
	if children, ok := s.state.children(t); ok {
		if len(children) != n {
			return nil, s.fail(RepetitionMismatch, t.Name(),
				fmt.Errorf("fixed at %d, requested %d", len(children), n))
		}
		return children, nil
	}
	children := make([]*Session, n)
	for i := range children {
		children[i] = newSession(t, s.cfg)
	}
	s.state.setChildren(t, children)
	return children, nil
}

// Populate instantiates a nested template from data. A slice or array
// yields one repetition per element, anything else a single repetition.
// Names restrict which variables and nested templates are read from each
// element, at every level.
func (s *Session) Populate(name string, data any, names ...string) error {
	return s.populate(name, data, stringify.None, names)
}

// PopulateWithGroup is Populate with a default variable group
func (s *Session) PopulateWithGroup(name string, data any, group stringify.VarGroup, names ...string) error {
	return s.populate(name, data, group, names)
}

func (s *Session) populate(name string, data any, group stringify.VarGroup, names []string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	t, err := s.nested(name)
	if err != nil {
		return err
	}
	return s.populateNested(t, data, group, names)
}

func (s *Session) populateNested(t *template.Template, data any, group stringify.VarGroup, names []string) error {
	if access.IsUndefined(data) {
		return nil
	}
	if data == nil && !t.TextOnly() {
		return s.fail(NilData, t.Name(), nil)
	}
	items := listify(data)
	children, err := s.instantiate(t, len(items))
	if err != nil || t.TextOnly() {
		return err
	}
	for i, c := range children {
		if err := c.insert(items[i], group, names); err != nil {
			return err
		}
	}
	return nil
}

// listify turns sequences into their elements. Byte slices count as one
// value.
func listify(data any) []any {
	switch d := data.(type) {
	case []any:
		return d
	case []byte, json.RawMessage:
		return []any{data}
	}
	rv := reflect.ValueOf(data)
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{data}
}

// Populate1 instantiates a nested template that has exactly one variable,
// once per value
func (s *Session) Populate1(name string, values ...any) error {
	if err := s.mutable(); err != nil {
		return err
	}
	t, err := s.nested(name)
	if err != nil {
		return err
	}
	vars := t.VariableNames()
	if len(vars) != 1 {
		return s.fail(NotOneVarTemplate, name, nil)
	}
	if len(values) == 0 {
		return s.fail(InvalidArgument, name, fmt.Errorf("no values"))
	}
	children, err := s.instantiate(t, len(values))
	if err != nil {
		return err
	}
	for i, c := range children {
		if err := c.set(vars[0], values[i], stringify.None); err != nil {
			return err
		}
	}
	return nil
}

// Populate2 instantiates a nested template that has exactly two variables,
// once per pair of values. Values fill the variables in order of first
// appearance.
func (s *Session) Populate2(name string, values ...any) error {
	if err := s.mutable(); err != nil {
		return err
	}
	t, err := s.nested(name)
	if err != nil {
		return err
	}
	vars := t.VariableNames()
	if len(vars) != 2 {
		return s.fail(NotTwoVarTemplate, name, nil)
	}
	if len(values) == 0 || len(values)%2 != 0 {
		return s.fail(InvalidArgument, name, fmt.Errorf("need a non-empty, even number of values, got %d", len(values)))
	}
	children, err := s.instantiate(t, len(values)/2)
	if err != nil {
		return err
	}
	for i, c := range children {
		if err := c.set(vars[0], values[2*i], stringify.None); err != nil {
			return err
		}
		if err := c.set(vars[1], values[2*i+1], stringify.None); err != nil {
			return err
		}
	}
	return nil
}

// Insert reads every variable and nested template of the template from
// data, or only the given names. Names the data does not define are
// skipped, so Insert can be called repeatedly with different data.
func (s *Session) Insert(data any, names ...string) error {
	return s.insert(data, stringify.None, names)
}

// InsertWithGroup is Insert with a default variable group
func (s *Session) InsertWithGroup(data any, group stringify.VarGroup, names ...string) error {
	return s.insert(data, group, names)
}

func (s *Session) insert(data any, group stringify.VarGroup, names []string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if access.IsUndefined(data) {
		return nil
	}
	if data == nil {
		if s.tmpl.TextOnly() {
			return nil
		}
		return s.fail(NilData, "", nil)
	}

	for _, name := range selectNames(s.tmpl.VariableNames(), names) {
		v, ok, err := s.cfg.accessors.Access(data, s.tmpl, name)
		if err != nil {
			return s.fail(AccessError, name, err)
		}
		if !ok {
			continue
		}
		if err := s.set(name, v, group); err != nil {
			return err
		}
	}
	for _, name := range selectNames(s.tmpl.NestedNames(), names) {
		v, ok, err := s.cfg.accessors.Access(data, s.tmpl, name)
		if err != nil {
			return s.fail(AccessError, name, err)
		}
		if !ok {
			continue
		}
		t, _ := s.tmpl.Nested(name)
		if err := s.populateNested(t, v, group, names); err != nil {
			return err
		}
	}
	return nil
}

func selectNames(all, names []string) []string {
	if len(names) == 0 {
		return all
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []string
	for _, n := range all {
		if _, ok := want[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Repeat fixes the repetition count of a nested template and returns the
// new repetitions
func (s *Session) Repeat(name string, n int) (*MultiSession, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	t, err := s.nested(name)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, s.fail(InvalidArgument, name, fmt.Errorf("negative repetition count %d", n))
	}
	if s.state.instantiated(t) {
		return nil, s.fail(RepetitionsFixed, name, nil)
	}
	children, err := s.instantiate(t, n)
	if err != nil {
		return nil, err
	}
	return newMultiSession(t, children), nil
}

// In returns the repetitions of a nested template given by a dotted path.
// Templates along the path that were never instantiated get one
// repetition.
func (s *Session) In(path string) (*MultiSession, error) {
	name, rest, _ := strings.Cut(path, ".")
	t, err := s.nested(name)
	if err != nil {
		return nil, err
	}
	children, ok := s.state.children(t)
	if !ok {
		if err := s.mutable(); err != nil {
			return nil, err
		}
		if children, err = s.instantiate(t, 1); err != nil {
			return nil, err
		}
	}
	m := newMultiSession(t, children)
	if rest == "" {
		return m, nil
	}
	return m.In(rest)
}

// Show instantiates text-only nested templates once. Without names it
// shows every text-only nested template not processed yet.
func (s *Session) Show(names ...string) error {
	return s.ShowN(1, names...)
}

// ShowN instantiates text-only nested templates n times
func (s *Session) ShowN(n int, names ...string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if n < 0 {
		return s.fail(InvalidArgument, "", fmt.Errorf("negative repetition count %d", n))
	}
	if len(names) == 0 {
		for _, t := range s.tmpl.NestedTemplates() {
			if t.TextOnly() && !s.state.instantiated(t) {
				if _, err := s.instantiate(t, n); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, name := range names {
		t, err := s.nested(name)
		if err != nil {
			return err
		}
		if !t.TextOnly() {
			return s.fail(NotTextOnly, name, nil)
		}
		if _, err := s.instantiate(t, n); err != nil {
			return err
		}
	}
	return nil
}

// ShowRecursive shows nested templates that have no variables anywhere
// beneath them, together with their own nested templates. With names, only
// templates with one of those names are shown, at any depth. Without
// names, every such template not processed yet is shown.
func (s *Session) ShowRecursive(names ...string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if len(names) == 0 {
		for _, t := range s.tmpl.NestedTemplates() {
			if !s.state.instantiated(t) && len(template.AllVariableFQNames(t)) == 0 {
				if err := s.showRecursive(t, nil); err != nil {
					return err
				}
			}
		}
		return nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	for _, name := range names {
		t, err := s.nested(name)
		if err != nil {
			return err
		}
		if len(template.AllVariableFQNames(t)) > 0 {
			return s.fail(NotTextOnly, name, nil)
		}
		if err := s.showRecursive(t, want); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) showRecursive(t *template.Template, want map[string]struct{}) error {
	children, err := s.instantiate(t, 1)
	if err != nil {
		return err
	}
	for _, nt := range t.NestedTemplates() {
		if want != nil {
			if _, ok := want[nt.Name()]; !ok {
				continue
			}
		}
		if err := children[0].showRecursive(nt, want); err != nil {
			return err
		}
	}
	return nil
}

// Unset reverts variables to unset so they can be set again. Without
// names every variable is unset. Unset thaws a frozen session.
func (s *Session) Unset(names ...string) error {
	if len(names) == 0 {
		names = s.tmpl.VariableNames()
	}
	for _, name := range names {
		if !s.tmpl.HasVariable(name) {
			return s.fail(NoSuchVariable, name, nil)
		}
	}
	for _, name := range names {
		for _, i := range s.tmpl.VariableIndices(name) {
			delete(s.state.values, i)
		}
		s.state.todo[name] = struct{}{}
	}
	s.state.frozen = false
	return nil
}

// Clear drops the repetitions of nested templates, returning them to
// uninstantiated. Without names every nested template is cleared. Clear
// thaws a frozen session.
func (s *Session) Clear(names ...string) error {
	if len(names) == 0 {
		names = s.tmpl.NestedNames()
	}
	targets := make([]*template.Template, 0, len(names))
	for _, name := range names {
		t, err := s.nested(name)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}
	for _, t := range targets {
		s.state.clearChildren(t)
	}
	s.state.frozen = false
	return nil
}

// Children returns the repetitions of a nested template
func (s *Session) Children(name string) ([]*Session, error) {
	t, err := s.nested(name)
	if err != nil {
		return nil, err
	}
	children, ok := s.state.children(t)
	if !ok {
		return nil, s.fail(NotInstantiated, name, nil)
	}
	return children, nil
}

// Frozen reports whether the session was rendered and not thawed since
func (s *Session) Frozen() bool {
	return s.state.frozen
}

// FullyPopulated reports whether every variable is set and every nested
// template is instantiated with fully populated repetitions. A nested
// template with zero repetitions counts as populated.
func (s *Session) FullyPopulated() bool {
	if len(s.state.todo) > 0 {
		return false
	}
	for _, t := range s.tmpl.NestedTemplates() {
		children, ok := s.state.children(t)
		if !ok {
			return false
		}
		for _, c := range children {
			if !c.FullyPopulated() {
				return false
			}
		}
	}
	return true
}

// UnsetVariables returns the fully-qualified names of the variables not
// set yet, including those of nested templates, without duplicates
func (s *Session) UnsetVariables() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	s.collectUnset(add)
	return out
}

func (s *Session) collectUnset(add func(string)) {
	for _, name := range s.tmpl.VariableNames() {
		if !s.state.isSet(name) {
			add(template.FQNameOf(s.tmpl, name))
		}
	}
	for _, t := range s.tmpl.NestedTemplates() {
		children, ok := s.state.children(t)
		if !ok {
			for _, name := range template.AllVariableFQNames(t) {
				add(name)
			}
			continue
		}
		for _, c := range children {
			c.collectUnset(add)
		}
	}
}

// Render freezes the session and writes the output to w
func (s *Session) Render(w io.Writer) error {
	s.state.freeze()
	return Render(w, s)
}

// RenderString freezes the session and returns the output
func (s *Session) RenderString() (string, error) {
	var sb strings.Builder
	if err := s.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
