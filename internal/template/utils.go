package template

import (
	"fmt"
	"strings"
)

// FQName returns the dotted name of a template relative to its root, e.g.
// "row.cell". The root itself has the name RootName.
func FQName(t *Template) string {
	if t.parent == nil {
		return t.name
	}
	var segs []string
	for c := t; c.parent != nil; c = c.parent {
		segs = append(segs, c.name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, ".")
}

// FQNameOf returns the fully-qualified name of a variable or nested
// template inside t
func FQNameOf(t *Template, name string) string {
	if t.parent == nil {
		return name
	}
	return FQName(t) + "." + name
}

// NestedByPath walks a dotted path of nested template names
func NestedByPath(t *Template, path string) (*Template, bool) {
	cur := t
	for _, seg := range strings.Split(path, ".") {
		next, ok := cur.Nested(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// AllVariableFQNames returns the fully-qualified names of every variable in
// the template and its nested templates, depth first in source order
func AllVariableFQNames(t *Template) []string {
	var out []string
	var walk func(*Template)
	walk = func(c *Template) {
		seen := make(map[string]bool)
		for _, p := range c.parts {
			switch v := p.(type) {
			case *VariablePart:
				if !seen[v.name] {
					seen[v.name] = true
					out = append(out, FQNameOf(c, v.name))
				}
			case NestedPart:
				walk(v.Template())
			}
		}
	}
	walk(t)
	return out
}

// Hierarchy returns an indented outline of the template tree listing
// nested templates and their variables
func Hierarchy(t *Template) string {
	var sb strings.Builder
	var walk func(*Template, int)
	walk = func(c *Template, depth int) {
		indent := strings.Repeat("  ", depth)
		kind := "template"
		if c.TextOnly() {
			kind = "text"
		}
		fmt.Fprintf(&sb, "%s%s (%s)\n", indent, c.name, kind)
		for _, v := range c.varNames {
			fmt.Fprintf(&sb, "%s  %s\n", indent, c.syntax.VariableTag("", v))
		}
		for _, n := range c.NestedTemplates() {
			walk(n, depth+1)
		}
	}
	walk(t, 0)
	return sb.String()
}
