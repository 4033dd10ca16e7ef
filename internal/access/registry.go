package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/aescanero/dago-templates/internal/namemap"
	"github.com/aescanero/dago-templates/internal/template"
)

// Registry selects the accessor for a data object. Accessors are bound to
// a data type, optionally for one template only; anything unregistered is
// read with a PathAccessor (or a CELAccessor when enabled) using the name
// mapper of the template.
type Registry struct {
	accessors       map[reflect.Type]map[*template.Template]Accessor
	mappers         map[*template.Template]namemap.NameMapper
	mapper          namemap.NameMapper
	nullIsUndefined bool
	cel             *CELAccessor
}

var (
	standard     *Registry
	standardOnce sync.Once
)

// Standard returns the registry with default settings
func Standard() *Registry {
	standardOnce.Do(func() {
		standard, _ = Configure().Build()
	})
	return standard
}

// Builder collects accessor registrations
type Builder struct {
	r    *Registry
	celM bool
	errs []error
}

// Configure starts a registry that reads raw JSON types with a
// JSONAccessor
func Configure() *Builder {
	b := &Builder{r: &Registry{
		accessors: make(map[reflect.Type]map[*template.Template]Accessor),
		mappers:   make(map[*template.Template]namemap.NameMapper),
		mapper:    namemap.Identity,
	}}
	for _, t := range []reflect.Type{
		reflect.TypeOf(json.RawMessage(nil)),
		reflect.TypeOf(gjson.Result{}),
	} {
		b.r.accessors[t] = map[*template.Template]Accessor{nil: jsonAccessor{b.r}}
	}
	return b
}

// jsonAccessor applies the registry's name mapping lazily
type jsonAccessor struct{ r *Registry }

func (a jsonAccessor) Access(data any, name string) (any, bool, error) {
	return JSONAccessor{Mapper: a.r.mapper}.Access(data, name)
}

// SetDefaultNameMapper sets the name mapper used for templates that have
// none of their own
func (b *Builder) SetDefaultNameMapper(m namemap.NameMapper) *Builder {
	if m == nil {
		b.errs = append(b.errs, errors.New("name mapper must not be nil"))
		return b
	}
	b.r.mapper = m
	return b
}

// SetNameMapper sets the name mapper for one template
func (b *Builder) SetNameMapper(tmpl *template.Template, m namemap.NameMapper) *Builder {
	if tmpl == nil || m == nil {
		b.errs = append(b.errs, errors.New("template and name mapper required"))
		return b
	}
	if _, ok := b.r.mappers[tmpl]; ok {
		b.errs = append(b.errs, fmt.Errorf("name mapper already set for template %s", template.FQName(tmpl)))
		return b
	}
	b.r.mappers[tmpl] = m
	return b
}

// NullIsUndefined makes nil values behave like Undefined, so they leave
// variables unset instead of rendering as ""
func (b *Builder) NullIsUndefined(v bool) *Builder {
	b.r.nullIsUndefined = v
	return b
}

// UseCEL reads unregistered types with a CELAccessor instead of a
// PathAccessor
func (b *Builder) UseCEL(v bool) *Builder {
	b.celM = v
	return b
}

// Register binds an accessor to a data type. With a non-nil template the
// accessor is used for that template only.
func (b *Builder) Register(acc Accessor, t reflect.Type, tmpl *template.Template) *Builder {
	if acc == nil || t == nil {
		b.errs = append(b.errs, errors.New("accessor and type required"))
		return b
	}
	m := b.r.accessors[t]
	if m == nil {
		m = make(map[*template.Template]Accessor)
		b.r.accessors[t] = m
	}
	if _, ok := m[tmpl]; ok && tmpl != nil {
		b.errs = append(b.errs, fmt.Errorf("template %s already has an accessor for %s", template.FQName(tmpl), t))
		return b
	}
	m[tmpl] = acc
	return b
}

// Build returns the registry, or the registration errors
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if b.celM {
		c, err := NewCELAccessor(b.r.mapper)
		if err != nil {
			return nil, err
		}
		b.r.cel = c
	}
	r := b.r
	b.r = nil
	return r, nil
}

// NullIsUndefined reports whether nil values are treated as undefined
func (r *Registry) NullIsUndefined() bool {
	return r.nullIsUndefined
}

// Accessor returns the accessor for data in the context of tmpl
func (r *Registry) Accessor(data any, tmpl *template.Template) Accessor {
	if data != nil {
		if m, ok := r.accessors[reflect.TypeOf(data)]; ok {
			if acc, ok := m[tmpl]; ok {
				return acc
			}
			if acc, ok := m[nil]; ok {
				return acc
			}
		}
	}

	mapper, ok := r.mappers[tmpl]
	if !ok {
		if r.cel != nil {
			return r.cel
		}
		mapper = r.mapper
	}
	return NewPathAccessor(mapper)
}

// Access reads name from data for tmpl. ok is false when the value is
// undefined, including nil values when NullIsUndefined is set.
func (r *Registry) Access(data any, tmpl *template.Template, name string) (any, bool, error) {
	v, ok, err := r.Accessor(data, tmpl).Access(data, name)
	if err != nil || !ok {
		return nil, false, err
	}
	if IsUndefined(v) || (r.nullIsUndefined && v == nil) {
		return nil, false, nil
	}
	return v, true, nil
}
