package render

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-templates/internal/access"
	"github.com/aescanero/dago-templates/internal/stringify"
	"github.com/aescanero/dago-templates/internal/template"
)

func parse(t *testing.T, src string) *template.Template {
	t.Helper()
	tmpl, err := template.NewEngine().FromString(src)
	require.NoError(t, err)
	return tmpl
}

func renderString(t *testing.T, s *Session) string {
	t.Helper()
	out, err := s.RenderString()
	require.NoError(t, err)
	return out
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var rerr *Error
	require.True(t, errors.As(err, &rerr), "expected *render.Error, got %v", err)
	assert.Equal(t, code, rerr.Code, rerr.Error())
}

func TestSetAndRender(t *testing.T) {
	s := NewSession(parse(t, "~%foo%"))
	require.NoError(t, s.Set("foo", "bar"))
	assert.Equal(t, "bar", renderString(t, s))
}

func TestRenderUnsetVariableIsEmpty(t *testing.T) {
	s := NewSession(parse(t, "a~%foo%b"))
	assert.Equal(t, "ab", renderString(t, s))
}

func TestRepetitions(t *testing.T) {
	src := "~%%begin:x%~%y%~%%end:x%"

	s := NewSession(parse(t, src))
	_, err := s.Repeat("x", 0)
	require.NoError(t, err)
	assert.Equal(t, "", renderString(t, s))
	assert.True(t, s.FullyPopulated())

	s = NewSession(parse(t, src))
	m, err := s.Repeat("x", 2)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())
	require.NoError(t, m.SetAt(0, "y", "A"))
	require.NoError(t, m.SetAt(1, "y", "B"))
	assert.Equal(t, "AB", renderString(t, s))

	s = NewSession(parse(t, src))
	require.NoError(t, s.Populate("x", []map[string]any{{"y": "A"}, {"y": "B"}}))
	children, err := s.Children("x")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Equal(t, "AB", renderString(t, s))
}

func TestRepetitionsOneTagPerLine(t *testing.T) {
	s := NewSession(parse(t, "<ul>\n~%%begin:item%\n  <li>~%name%</li>\n~%%end:item%\n</ul>"))
	require.NoError(t, s.Populate("item", []map[string]any{{"name": "a"}, {"name": "b"}}))
	assert.Equal(t, "<ul>\n  <li>a</li>\n  <li>b</li>\n\n</ul>", renderString(t, s))
}

func TestNeverInstantiatedRendersEmpty(t *testing.T) {
	s := NewSession(parse(t, "[~%%begin:x%~%y%~%%end:x%]"))
	assert.Equal(t, "[]", renderString(t, s))

	_, err := s.Children("x")
	requireCode(t, err, NotInstantiated)
}

func TestWriteOnce(t *testing.T) {
	s := NewSession(parse(t, "~%foo%"))
	require.NoError(t, s.Set("foo", "a"))
	requireCode(t, s.Set("foo", "b"), AlreadySet)

	require.NoError(t, s.Unset("foo"))
	require.NoError(t, s.Set("foo", "b"))
	assert.Equal(t, "b", renderString(t, s))
}

func TestUndefinedIsNoop(t *testing.T) {
	s := NewSession(parse(t, "~%foo%~%%begin:x%~%y%~%%end:x%"))
	require.NoError(t, s.Set("foo", access.Undefined))
	require.NoError(t, s.Populate("x", access.Undefined))
	require.NoError(t, s.Insert(access.Undefined))
	assert.Equal(t, []string{"foo", "x.y"}, s.UnsetVariables())

	_, err := s.Children("x")
	requireCode(t, err, NotInstantiated)
}

func TestOccurrenceIndependence(t *testing.T) {
	s := NewSession(parse(t, "~%html:v%|~%js:v%|~%v%"))
	require.NoError(t, s.Set("v", "<b>"))
	assert.Empty(t, s.UnsetVariables())
	assert.Equal(t, `&lt;b&gt;|\u003Cb\u003E|<b>`, renderString(t, s))
}

func TestFrozen(t *testing.T) {
	s := NewSession(parse(t, "~%a%~%%begin:x%~%b%~%%end:x%"))
	require.NoError(t, s.Set("a", "1"))
	m, err := s.Repeat("x", 1)
	require.NoError(t, err)
	require.NoError(t, m.Set("b", "2"))

	first := renderString(t, s)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, renderString(t, s))
	}
	assert.True(t, s.Frozen())

	requireCode(t, s.Set("a", "x"), Frozen)
	requireCode(t, s.Populate("x", nil), Frozen)
	requireCode(t, m.Unset("nope"), NoSuchVariable)

	child, err := m.Session(0)
	require.NoError(t, err)
	requireCode(t, child.Set("b", "3"), Frozen)

	require.NoError(t, s.Unset("a"))
	assert.False(t, s.Frozen())
	require.NoError(t, s.Set("a", "9"))
	assert.Equal(t, "92", renderString(t, s))
}

func TestRepetitionCountFixed(t *testing.T) {
	s := NewSession(parse(t, "~%%begin:x%~%y%~%%end:x%"))
	require.NoError(t, s.Populate("x", []string{"a", "b"}, "none"))

	requireCode(t, s.Populate("x", []string{"a", "b", "c"}), RepetitionMismatch)
	_, err := s.Repeat("x", 2)
	requireCode(t, err, RepetitionsFixed)

	require.NoError(t, s.Clear("x"))
	_, err = s.Repeat("x", 3)
	require.NoError(t, err)
}

func TestFullyPopulated(t *testing.T) {
	s := NewSession(parse(t, "~%a%~%%begin:x%~%y%~%%end:x%"))
	assert.False(t, s.FullyPopulated())

	require.NoError(t, s.Set("a", 1))
	assert.False(t, s.FullyPopulated(), "x is not instantiated")

	m, err := s.Repeat("x", 2)
	require.NoError(t, err)
	require.NoError(t, m.SetAt(0, "y", "p"))
	assert.False(t, s.FullyPopulated())
	assert.False(t, m.FullyPopulated())

	require.NoError(t, m.SetAt(1, "y", "q"))
	assert.True(t, s.FullyPopulated())
}

func TestUnsetVariables(t *testing.T) {
	s := NewSession(parse(t, "~%a%~%%begin:x%~%y%~%%begin:z%~%w%~%%end:z%~%%end:x%"))
	if diff := cmp.Diff([]string{"a", "x.y", "x.z.w"}, s.UnsetVariables()); diff != "" {
		t.Errorf("UnsetVariables() mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.Set("a", "1"))
	m, err := s.Repeat("x", 2)
	require.NoError(t, err)
	require.NoError(t, m.Set("y", "2"))
	if diff := cmp.Diff([]string{"x.z.w"}, s.UnsetVariables()); diff != "" {
		t.Errorf("UnsetVariables() mismatch (-want +got):\n%s", diff)
	}
}

type item struct {
	Name string
}

type page struct {
	Title string
	Items []item
}

func TestInsert(t *testing.T) {
	tmpl := parse(t, "<h1>~%title%</h1>~%%begin:items%<i>~%name%</i>~%%end:items%")

	s := NewSession(tmpl)
	require.NoError(t, s.Insert(page{Title: "T", Items: []item{{"a"}, {"b"}}}))
	assert.Equal(t, "<h1>T</h1><i>a</i><i>b</i>", renderString(t, s))

	s = NewSession(tmpl)
	require.NoError(t, s.Insert(map[string]any{"title": "only"}))
	assert.Equal(t, []string{"items.name"}, s.UnsetVariables())
	require.NoError(t, s.Insert(map[string]any{"items": []any{map[string]any{"name": "n"}}}, "items", "name"))
	assert.Equal(t, "<h1>only</h1><i>n</i>", renderString(t, s))
}

func TestInsertWithGroup(t *testing.T) {
	s := NewSession(parse(t, "~%a%~%text:b%"))
	require.NoError(t, s.InsertWithGroup(map[string]any{"a": "<x>", "b": "<y>"}, stringify.HTML))
	assert.Equal(t, "&lt;x&gt;<y>", renderString(t, s))
}

func TestNilData(t *testing.T) {
	s := NewSession(parse(t, "~%a%~%%begin:x%~%y%~%%end:x%"))
	requireCode(t, s.Insert(nil), NilData)
	requireCode(t, s.Populate("x", nil), NilData)

	text := NewSession(parse(t, "static"))
	require.NoError(t, text.Insert(nil))
	assert.Equal(t, "static", renderString(t, text))
}

func TestUnknownNames(t *testing.T) {
	s := NewSession(parse(t, "~%a%~%%begin:x%-~%%end:x%"))
	requireCode(t, s.Set("nope", 1), NoSuchVariable)
	requireCode(t, s.Populate("nope", 1), NoSuchTemplate)
	_, err := s.In("x.nope")
	requireCode(t, err, NoSuchTemplate)

	var rerr *Error
	require.True(t, errors.As(s.Set("nope", 1), &rerr))
	assert.Equal(t, template.RootName, rerr.Template)
	assert.Equal(t, "nope", rerr.Name)
}

func TestShow(t *testing.T) {
	tmpl := parse(t, "a~%%begin:t%T~%%end:t%b~%%begin:v%~%x%~%%end:v%")

	s := NewSession(tmpl)
	require.NoError(t, s.Show("t"))
	assert.Equal(t, "aTb", renderString(t, s))

	s = NewSession(tmpl)
	require.NoError(t, s.ShowN(3, "t"))
	assert.Equal(t, "aTTTb", renderString(t, s))

	s = NewSession(tmpl)
	require.NoError(t, s.Show())
	assert.Equal(t, "aTb", renderString(t, s))

	s = NewSession(tmpl)
	requireCode(t, s.Show("v"), NotTextOnly)
	require.NoError(t, s.Populate("t", []int{1, 2}))
	assert.Equal(t, "aTTb", renderString(t, s))
}

func TestShowRecursive(t *testing.T) {
	tmpl := parse(t, "~%%begin:outer%[~%%begin:inner%x~%%end:inner%]~%%end:outer%~%%begin:v%~%y%~%%end:v%")

	s := NewSession(tmpl)
	require.NoError(t, s.ShowRecursive())
	assert.Equal(t, "[x]", renderString(t, s))

	s = NewSession(tmpl)
	require.NoError(t, s.ShowRecursive("outer"))
	assert.Equal(t, "[]", renderString(t, s))

	s = NewSession(tmpl)
	requireCode(t, s.ShowRecursive("v"), NotTextOnly)
}

func TestPopulate1And2(t *testing.T) {
	s := NewSession(parse(t, "~%%begin:li%<li>~%v%</li>~%%end:li%~%%begin:kv%~%k%=~%v%;~%%end:kv%"))
	require.NoError(t, s.Populate1("li", 1, 2))
	require.NoError(t, s.Populate2("kv", "a", 1, "b", 2))
	assert.Equal(t, "<li>1</li><li>2</li>a=1;b=2;", renderString(t, s))

	s = NewSession(parse(t, "~%%begin:kv%~%k%=~%v%~%%end:kv%"))
	requireCode(t, s.Populate1("kv", 1), NotOneVarTemplate)
	requireCode(t, s.Populate2("kv", "a"), InvalidArgument)

	s = NewSession(parse(t, "~%%begin:li%~%v%~%%end:li%"))
	requireCode(t, s.Populate2("li", "a", "b"), NotTwoVarTemplate)
}

func TestSetEach(t *testing.T) {
	s := NewSession(parse(t, "~%%begin:row%~%n%,~%%end:row%"))
	_, err := s.Repeat("row", 3)
	require.NoError(t, err)
	require.NoError(t, s.SetEach("row.n", func(i int) any { return i * 10 }))
	assert.Equal(t, "0,10,20,", renderString(t, s))

	s = NewSession(parse(t, "~%%begin:a%~%%begin:b%~%v%~%%end:b%~%%end:a%"))
	require.NoError(t, s.SetEach("a.b.v", func(i int) any { return "z" }))
	assert.Equal(t, "z", renderString(t, s))
}

func TestIn(t *testing.T) {
	s := NewSession(parse(t, "~%%begin:a%(~%%begin:b%~%v%~%%end:b%)~%%end:a%"))
	_, err := s.Repeat("a", 2)
	require.NoError(t, err)

	m, err := s.In("a.b")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "b", m.Template().Name())
	require.NoError(t, m.Set("v", "z"))
	assert.Equal(t, "(z)(z)", renderString(t, s))

	_, err = m.Session(5)
	requireCode(t, err, InvalidArgument)
}

func TestDefGroup(t *testing.T) {
	tmpl := parse(t, "<!-- ~%def:title% -->Untitled<!--%-->")

	s := NewSession(tmpl)
	require.NoError(t, s.Set("title", nil))
	assert.Equal(t, "Untitled", renderString(t, s))

	s = NewSession(tmpl)
	require.NoError(t, s.Set("title", "Hi"))
	assert.Equal(t, "Hi", renderString(t, s))
}

func TestGroups(t *testing.T) {
	s := NewSession(parse(t, "~%v%"))
	require.NoError(t, s.SetWithGroup("v", stringify.HTML, "<b>"))
	assert.Equal(t, "&lt;b&gt;", renderString(t, s))

	s = NewSession(parse(t, "~%v%"))
	requireCode(t, s.SetWithGroup("v", stringify.VarGroup("nope"), "x"), NoStringifierForGroup)
}

func TestStringifierFailures(t *testing.T) {
	tmpl := parse(t, "~%v%~%w%")
	reg, err := stringify.Configure().
		RegisterByName(stringify.Func(func(v any) (string, error) { return v.(string), nil }), "v").
		RegisterByName(stringify.Func(func(any) (string, error) { return "", errors.New("bad value") }), "w").
		Build()
	require.NoError(t, err)

	s := NewSession(tmpl, WithStringifiers(reg))
	requireCode(t, s.Set("v", nil), BadStringifier)
	require.NoError(t, s.Set("v", "ok"))

	err = s.Set("w", 1)
	requireCode(t, err, StringifierFailed)
	assert.Contains(t, err.Error(), "bad value")
	assert.Equal(t, []string{"w"}, s.UnsetVariables())
}

func TestAccessors(t *testing.T) {
	tmpl := parse(t, "~%a%~%b%")

	failing, err := access.Configure().
		Register(access.Func(func(any, string) (any, bool, error) { return nil, false, errors.New("boom") }), reflect.TypeOf(item{}), nil).
		Build()
	require.NoError(t, err)
	s := NewSession(tmpl, WithAccessors(failing))
	requireCode(t, s.Insert(item{}), AccessError)

	nullUndefined, err := access.Configure().NullIsUndefined(true).Build()
	require.NoError(t, err)
	s = NewSession(tmpl, WithAccessors(nullUndefined))
	require.NoError(t, s.Insert(map[string]any{"a": nil, "b": "x"}))
	assert.Equal(t, []string{"a"}, s.UnsetVariables())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriter(t *testing.T) {
	s := NewSession(parse(t, "a~%%begin:x%b~%%end:x%"))
	require.NoError(t, s.Show("x"))

	var sb strings.Builder
	require.NoError(t, s.Render(&sb))
	assert.Equal(t, "ab", sb.String())

	err := Render(failingWriter{}, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "AlreadySet", AlreadySet.String())
	assert.Equal(t, "ErrorCode(99)", ErrorCode(99).String())
}
