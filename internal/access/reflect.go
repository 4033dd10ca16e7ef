package access

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/aescanero/dago-templates/internal/namemap"
)

// MapAccessor reads keys of maps with string or integer keys
type MapAccessor struct {
	Mapper namemap.NameMapper
}

// Access returns data[name]
func (a MapAccessor) Access(data any, name string) (any, bool, error) {
	rv, ok := indirect(data)
	if !ok || rv.Kind() != reflect.Map {
		return nil, false, nil
	}
	v, found := mapStep(rv, mapName(a.Mapper, name))
	return v, found, nil
}

// StructAccessor reads exported struct fields and zero-argument methods.
// A field matches when its `tmpl` tag, its name or its name ignoring case
// equals the (mapped) name, in that order.
type StructAccessor struct {
	Mapper namemap.NameMapper
}

// Access returns the field or method result called name
func (a StructAccessor) Access(data any, name string) (any, bool, error) {
	rv, ok := indirect(data)
	if !ok || rv.Kind() != reflect.Struct {
		return nil, false, nil
	}
	return structStep(rv, mapName(a.Mapper, name))
}

// SliceAccessor reads elements of slices and arrays by decimal index
type SliceAccessor struct{}

// Access returns data[name]
func (SliceAccessor) Access(data any, name string) (any, bool, error) {
	rv, ok := indirect(data)
	if !ok || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false, nil
	}
	v, found := sliceStep(rv, name)
	return v, found, nil
}

// PathAccessor walks dotted names through any mix of maps, structs,
// slices and raw JSON
type PathAccessor struct {
	Mapper namemap.NameMapper
}

// NewPathAccessor creates a path accessor. A nil mapper means identity.
func NewPathAccessor(m namemap.NameMapper) *PathAccessor {
	return &PathAccessor{Mapper: m}
}

// Access walks name one segment at a time
func (a *PathAccessor) Access(data any, name string) (any, bool, error) {
	cur := data
	for _, seg := range strings.Split(name, ".") {
		v, ok, err := step(cur, mapName(a.Mapper, seg))
		if err != nil || !ok {
			return nil, false, err
		}
		cur = v
	}
	return cur, true, nil
}

func mapName(m namemap.NameMapper, name string) string {
	if m == nil {
		return name
	}
	return m.Map(name)
}

func step(data any, seg string) (any, bool, error) {
	switch d := data.(type) {
	case nil:
		return nil, false, nil
	case map[string]any:
		v, ok := d[seg]
		return v, ok, nil
	case json.RawMessage:
		v, ok := jsonGet(d, seg)
		return v, ok, nil
	}

	rv, ok := indirect(data)
	if !ok {
		return nil, false, nil
	}
	switch rv.Kind() {
	case reflect.Map:
		v, found := mapStep(rv, seg)
		return v, found, nil
	case reflect.Struct:
		return structStep(rv, seg)
	case reflect.Slice, reflect.Array:
		v, found := sliceStep(rv, seg)
		return v, found, nil
	}
	return nil, false, nil
}

// indirect dereferences pointers and interfaces. ok is false for nil.
func indirect(data any) (reflect.Value, bool) {
	rv := reflect.ValueOf(data)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func mapStep(rv reflect.Value, seg string) (any, bool) {
	kt := rv.Type().Key()
	var k reflect.Value
	switch kt.Kind() {
	case reflect.String:
		k = reflect.ValueOf(seg).Convert(kt)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(seg, 10, 64)
		if err != nil {
			return nil, false
		}
		k = reflect.New(kt).Elem()
		k.SetInt(n)
	default:
		return nil, false
	}
	v := rv.MapIndex(k)
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func sliceStep(rv reflect.Value, seg string) (any, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= rv.Len() {
		return nil, false
	}
	return rv.Index(i).Interface(), true
}

type fieldKey struct {
	t    reflect.Type
	name string
}

type member struct {
	index  []int
	method int
}

var members sync.Map // fieldKey -> *member (nil when absent)

func structStep(rv reflect.Value, name string) (any, bool, error) {
	m := lookupMember(rv.Type(), name)
	if m == nil {
		return nil, false, nil
	}
	if m.index != nil {
		f, err := rv.FieldByIndexErr(m.index)
		if err != nil {
			// nil embedded pointer
			return nil, false, nil
		}
		return f.Interface(), true, nil
	}

	var recv reflect.Value
	if rv.CanAddr() {
		recv = rv.Addr()
	} else {
		recv = reflect.New(rv.Type())
		recv.Elem().Set(rv)
	}
	meth := recv.Method(m.method)
	out := meth.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, false, out[1].Interface().(error)
	}
	return out[0].Interface(), true, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func lookupMember(t reflect.Type, name string) *member {
	key := fieldKey{t, name}
	if v, ok := members.Load(key); ok {
		return v.(*member)
	}

	m := findField(t, name)
	if m == nil {
		m = findMethod(t, name)
	}
	members.Store(key, m)
	return m
}

func findField(t reflect.Type, name string) *member {
	fields := reflect.VisibleFields(t)
	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("tmpl"), ",")
		if tag == name && tag != "-" {
			return &member{index: f.Index}
		}
	}
	for _, f := range fields {
		if f.IsExported() && f.Tag.Get("tmpl") != "-" && f.Name == name {
			return &member{index: f.Index}
		}
	}
	for _, f := range fields {
		if f.IsExported() && f.Tag.Get("tmpl") != "-" && strings.EqualFold(f.Name, name) {
			return &member{index: f.Index}
		}
	}
	return nil
}

// findMethod looks up a method with no arguments returning a value or a
// value and an error. Methods are looked up on the pointer type so value
// and pointer receivers both work.
func findMethod(t reflect.Type, name string) *member {
	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		mt := m.Type
		if mt.NumIn() != 1 {
			continue
		}
		if mt.NumOut() == 1 || (mt.NumOut() == 2 && mt.Out(1) == errorType) {
			return &member{method: i}
		}
	}
	return nil
}
