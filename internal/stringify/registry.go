package stringify

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aescanero/dago-templates/internal/template"
)

// ErrNoGroupStringifier is returned by Lookup when a default group was
// requested that has no stringifier
var ErrNoGroupStringifier = errors.New("no stringifier registered for variable group")

type varKey struct {
	tmpl *template.Template
	name string
}

type pattern struct {
	expr string
	sf   Stringifier
}

func (p pattern) matches(name string) bool {
	prefix := strings.HasPrefix(p.expr, "*")
	suffix := strings.HasSuffix(p.expr, "*")
	core := strings.Trim(p.expr, "*")
	switch {
	case prefix && suffix:
		return strings.Contains(name, core)
	case prefix:
		return strings.HasSuffix(name, core)
	default:
		return strings.HasPrefix(name, core)
	}
}

type ifaceEntry struct {
	t  reflect.Type
	sf Stringifier
}

// Registry selects the stringifier for a variable occurrence. It is
// immutable once built and safe for concurrent use.
type Registry struct {
	groups   map[VarGroup]Stringifier
	vars     map[varKey]Stringifier
	names    map[string]Stringifier
	patterns []pattern
	types    map[reflect.Type]Stringifier
	ifaces   []ifaceEntry
	varTypes map[varKey]reflect.Type
	def      Stringifier
}

var (
	standard     *Registry
	standardOnce sync.Once
)

// Standard returns the registry holding only the standard group
// stringifiers
func Standard() *Registry {
	standardOnce.Do(func() {
		standard, _ = Configure().Build()
	})
	return standard
}

// Builder collects registrations. Errors are reported by Build.
type Builder struct {
	r    *Registry
	errs []error
}

// Configure starts a registry that already contains the standard group
// stringifiers (text, html, js, attr, jsattr, param, path, strip)
func Configure() *Builder {
	b := CleanSlate()
	for g, sf := range standardGroups() {
		b.r.groups[g] = sf
	}
	return b
}

// CleanSlate starts an empty registry
func CleanSlate() *Builder {
	return &Builder{r: &Registry{
		groups:   make(map[VarGroup]Stringifier),
		vars:     make(map[varKey]Stringifier),
		names:    make(map[string]Stringifier),
		types:    make(map[reflect.Type]Stringifier),
		varTypes: make(map[varKey]reflect.Type),
		def:      Default,
	}}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

// SetDefault replaces the registry-wide fallback stringifier
func (b *Builder) SetDefault(sf Stringifier) *Builder {
	if sf == nil {
		return b.fail("default stringifier must not be nil")
	}
	b.r.def = sf
	return b
}

// RegisterByGroup binds a stringifier to one or more variable groups
func (b *Builder) RegisterByGroup(sf Stringifier, groups ...VarGroup) *Builder {
	if sf == nil || len(groups) == 0 {
		return b.fail("stringifier and at least one group required")
	}
	for _, g := range groups {
		if g == None {
			return b.fail("group name must not be empty")
		}
		b.r.groups[g] = sf
	}
	return b
}

// Register binds a stringifier to variables of one template. Names may be
// dotted paths into nested templates ("row.price").
func (b *Builder) Register(sf Stringifier, tmpl *template.Template, names ...string) *Builder {
	if sf == nil || tmpl == nil || len(names) == 0 {
		return b.fail("stringifier, template and at least one variable required")
	}
	for _, n := range names {
		k, err := resolveVar(tmpl, n)
		if err != nil {
			return b.fail("failed to register stringifier: %w", err)
		}
		if _, ok := b.r.vars[k]; ok {
			return b.fail("stringifier already set for variable %q", n)
		}
		b.r.vars[k] = sf
	}
	return b
}

// RegisterByTemplate binds a stringifier to variables of a nested template
// given by a dotted path. Without names, every variable of that template is
// bound.
func (b *Builder) RegisterByTemplate(sf Stringifier, tmpl *template.Template, nested string, names ...string) *Builder {
	if sf == nil || tmpl == nil {
		return b.fail("stringifier and template required")
	}
	target := tmpl
	if nested != "" {
		t, ok := template.NestedByPath(tmpl, nested)
		if !ok {
			return b.fail("no such nested template: %q", nested)
		}
		target = t
	}
	if len(names) == 0 {
		names = target.VariableNames()
	}
	return b.Register(sf, target, names...)
}

// RegisterByName binds a stringifier to a variable name in any template. A
// leading or trailing "*" makes the name a suffix, prefix or substring
// pattern; patterns are tried in registration order.
func (b *Builder) RegisterByName(sf Stringifier, names ...string) *Builder {
	if sf == nil || len(names) == 0 {
		return b.fail("stringifier and at least one name required")
	}
	for _, n := range names {
		if strings.Trim(n, "*") == "" {
			return b.fail("invalid variable name %q", n)
		}
		if strings.HasPrefix(n, "*") || strings.HasSuffix(n, "*") {
			b.r.patterns = append(b.r.patterns, pattern{expr: n, sf: sf})
			continue
		}
		if _, ok := b.r.names[n]; ok {
			return b.fail("stringifier already set for variable %q", n)
		}
		b.r.names[n] = sf
	}
	return b
}

// RegisterByType binds a stringifier to value types. Interface types match
// any value implementing them, in registration order, after exact types.
func (b *Builder) RegisterByType(sf Stringifier, types ...reflect.Type) *Builder {
	if sf == nil || len(types) == 0 {
		return b.fail("stringifier and at least one type required")
	}
	for _, t := range types {
		if t == nil {
			return b.fail("type must not be nil")
		}
		if t.Kind() == reflect.Interface {
			b.r.ifaces = append(b.r.ifaces, ifaceEntry{t: t, sf: sf})
			continue
		}
		if _, ok := b.r.types[t]; ok {
			return b.fail("stringifier already set for type %s", t)
		}
		b.r.types[t] = sf
	}
	return b
}

// SetVariableType declares the type of variables so the type stringifier
// applies even when the value is nil
func (b *Builder) SetVariableType(t reflect.Type, tmpl *template.Template, names ...string) *Builder {
	if t == nil || tmpl == nil || len(names) == 0 {
		return b.fail("type, template and at least one variable required")
	}
	for _, n := range names {
		k, err := resolveVar(tmpl, n)
		if err != nil {
			return b.fail("failed to set variable type: %w", err)
		}
		if _, ok := b.r.varTypes[k]; ok {
			return b.fail("data type already set for variable %q", n)
		}
		b.r.varTypes[k] = t
	}
	return b
}

// Build returns the registry, or the first registration error
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	r := b.r
	b.r = nil
	return r, nil
}

// TypeOf returns the reflect.Type of T. It works for interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func resolveVar(tmpl *template.Template, name string) (varKey, error) {
	owner := tmpl
	varName := name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		if t, ok := template.NestedByPath(tmpl, name[:i]); ok {
			owner, varName = t, name[i+1:]
		}
	}
	if !owner.HasVariable(varName) {
		return varKey{}, fmt.Errorf("no such variable: %q", name)
	}
	return varKey{tmpl: owner, name: varName}, nil
}

// Group returns the stringifier bound to a group
func (r *Registry) Group(g VarGroup) (Stringifier, bool) {
	sf, ok := r.groups[g]
	return sf, ok
}

// Lookup selects the stringifier for one variable occurrence of tmpl,
// trying in order: the occurrence's inline group, the caller's default
// group, the variable in this template, the variable name, name patterns,
// the declared or actual value type and the registry default.
func (r *Registry) Lookup(tmpl *template.Template, part *template.VariablePart, group VarGroup, value any) (Stringifier, error) {
	if inline := VarGroup(part.Group()); inline != None {
		if sf, ok := r.groups[inline]; ok {
			return sf, nil
		}
	} else if group != None {
		if sf, ok := r.groups[group]; ok {
			return sf, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoGroupStringifier, group)
	}

	name := part.Name()
	k := varKey{tmpl: tmpl, name: name}
	if sf, ok := r.vars[k]; ok {
		return sf, nil
	}
	if sf, ok := r.names[name]; ok {
		return sf, nil
	}
	for _, p := range r.patterns {
		if p.matches(name) {
			return p.sf, nil
		}
	}

	t, ok := r.varTypes[k]
	if !ok && value != nil {
		t = reflect.TypeOf(value)
	}
	if t != nil {
		if sf, ok := r.byType(t); ok {
			return sf, nil
		}
	}
	return r.def, nil
}

func (r *Registry) byType(t reflect.Type) (Stringifier, bool) {
	if sf, ok := r.types[t]; ok {
		return sf, true
	}
	if t.Kind() == reflect.Pointer {
		if sf, ok := r.types[t.Elem()]; ok {
			return sf, true
		}
	}
	for _, e := range r.ifaces {
		if t.Implements(e.t) {
			return e.sf, true
		}
	}
	return nil, false
}
