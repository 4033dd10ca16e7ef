package template

import (
	"strings"
)

// RootName is the name of every top-level template. It is reserved and
// cannot be used for nested templates.
const RootName = "{root}"

// Template is a parsed template: an ordered list of parts plus name indices
// built once at construction. A Template is immutable and safe to share
// between goroutines.
type Template struct {
	name   string
	loc    Location
	parent *Template
	syntax *Syntax

	parts       []Part
	vars        map[string][]int
	varNames    []string
	nested      map[string]int
	nestedNames []string
	names       []string
	text        string
}

func newTemplate(name string, loc Location, syntax *Syntax, parts []Part) *Template {
	t := &Template{
		name:   name,
		loc:    loc,
		syntax: syntax,
		parts:  parts,
		vars:   make(map[string][]int),
		nested: make(map[string]int),
	}

	var text strings.Builder
	seen := make(map[string]struct{})
	for i, p := range parts {
		switch v := p.(type) {
		case *TextPart:
			text.WriteString(v.text)
		case *VariablePart:
			if _, ok := t.vars[v.name]; !ok {
				t.varNames = append(t.varNames, v.name)
			}
			t.vars[v.name] = append(t.vars[v.name], i)
			if _, ok := seen[v.name]; !ok {
				seen[v.name] = struct{}{}
				t.names = append(t.names, v.name)
			}
		case NestedPart:
			v.Template().parent = t
			t.nested[v.Name()] = i
			t.nestedNames = append(t.nestedNames, v.Name())
			if _, ok := seen[v.Name()]; !ok {
				seen[v.Name()] = struct{}{}
				t.names = append(t.names, v.Name())
			}
		}
	}
	if t.TextOnly() {
		t.text = text.String()
	}
	return t
}

// clone returns a deep copy of the template under a new name with no
// parent. Included templates come from the cache and are shared, so every
// include site owns a private copy.
func (t *Template) clone(name string) *Template {
	c := *t
	c.name = name
	c.parent = nil
	c.parts = make([]Part, len(t.parts))
	for i, p := range t.parts {
		switch v := p.(type) {
		case *InlinePart:
			child := v.tmpl.clone(v.tmpl.name)
			child.parent = &c
			c.parts[i] = &InlinePart{nested: nested{start: v.start, tmpl: child}, ct: v.ct}
		case *IncludedPart:
			child := v.tmpl.clone(v.tmpl.name)
			child.parent = &c
			c.parts[i] = &IncludedPart{nested: nested{start: v.start, tmpl: child}, path: v.path, comment: v.comment}
		default:
			c.parts[i] = p
		}
	}
	return &c
}

// Name returns the template name; RootName for top-level templates
func (t *Template) Name() string { return t.name }

// Location returns where the template was loaded from
func (t *Template) Location() Location { return t.loc }

// Path returns the template path, or "" when string-sourced
func (t *Template) Path() string { return t.loc.path }

// Parent returns the enclosing template, or nil for a root
func (t *Template) Parent() *Template { return t.parent }

// Root returns the outermost enclosing template
func (t *Template) Root() *Template {
	r := t
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Syntax returns the syntax the template was parsed with
func (t *Template) Syntax() *Syntax { return t.syntax }

// NumParts returns the number of parts
func (t *Template) NumParts() int { return len(t.parts) }

// Part returns the part at index i
func (t *Template) Part(i int) Part { return t.parts[i] }

// Parts returns a copy of the part list
func (t *Template) Parts() []Part {
	out := make([]Part, len(t.parts))
	copy(out, t.parts)
	return out
}

// VariableNames returns the distinct variable names in first-occurrence order
func (t *Template) VariableNames() []string {
	return append([]string(nil), t.varNames...)
}

// HasVariable reports whether the template contains the variable
func (t *Template) HasVariable(name string) bool {
	_, ok := t.vars[name]
	return ok
}

// VariableIndices returns the part indices of every occurrence of a variable
func (t *Template) VariableIndices(name string) []int {
	return append([]int(nil), t.vars[name]...)
}

// CountVariables returns the number of distinct variables
func (t *Template) CountVariables() int { return len(t.varNames) }

// NestedNames returns the names of the nested templates in source order
func (t *Template) NestedNames() []string {
	return append([]string(nil), t.nestedNames...)
}

// HasNested reports whether the template contains the nested template
func (t *Template) HasNested(name string) bool {
	_, ok := t.nested[name]
	return ok
}

// NestedIndex returns the part index of a nested template
func (t *Template) NestedIndex(name string) (int, bool) {
	i, ok := t.nested[name]
	return i, ok
}

// Nested returns a nested template by name
func (t *Template) Nested(name string) (*Template, bool) {
	i, ok := t.nested[name]
	if !ok {
		return nil, false
	}
	return t.parts[i].(NestedPart).Template(), true
}

// NestedTemplates returns the nested templates in source order
func (t *Template) NestedTemplates() []*Template {
	out := make([]*Template, 0, len(t.nestedNames))
	for _, n := range t.nestedNames {
		out = append(out, t.parts[t.nested[n]].(NestedPart).Template())
	}
	return out
}

// CountNested returns the number of nested templates
func (t *Template) CountNested() int { return len(t.nestedNames) }

// Names returns all variable and nested template names in first-occurrence
// order
func (t *Template) Names() []string {
	return append([]string(nil), t.names...)
}

// TextOnly reports whether the template has no variables and no nested
// templates
func (t *Template) TextOnly() bool {
	return len(t.varNames) == 0 && len(t.nestedNames) == 0
}

// Text returns the fixed output of a text-only template, or "" otherwise
func (t *Template) Text() string { return t.text }

// String reproduces the template source in canonical form. Ditch blocks
// and stripped placeholders are gone; comment-wrapped variables keep their
// placeholder.
func (t *Template) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Template) write(sb *strings.Builder) {
	s := t.syntax
	if s == nil {
		s = DefaultSyntax()
	}
	for _, p := range t.parts {
		switch v := p.(type) {
		case *TextPart:
			sb.WriteString(v.text)
		case *VariablePart:
			if v.hasPlaceholder {
				sb.WriteString("<!-- ")
				sb.WriteString(s.VariableTag(v.group, v.name))
				sb.WriteString(" -->")
				sb.WriteString(v.placeholder)
				sb.WriteString(placeholderToken)
			} else {
				sb.WriteString(s.VariableTag(v.group, v.name))
			}
		case *InlinePart:
			sb.WriteString(s.beginTag(v.Name()))
			v.tmpl.write(sb)
			sb.WriteString(s.endTag(v.Name()))
		case *IncludedPart:
			sb.WriteString(s.includeTag(v.Name(), v.path))
		}
	}
}
