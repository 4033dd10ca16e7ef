package template

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-templates/internal/resolve"
)

func mustParse(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := NewEngine().FromString(src)
	require.NoError(t, err)
	return tmpl
}

func TestParseVariable(t *testing.T) {
	tmpl := mustParse(t, "~%foo%")

	require.Equal(t, 1, tmpl.NumParts())
	v, ok := tmpl.Part(0).(*VariablePart)
	require.True(t, ok)
	assert.Equal(t, "foo", v.Name())
	assert.Equal(t, "", v.Group())
	assert.Equal(t, RootName, tmpl.Name())
	assert.Nil(t, tmpl.Parent())
	assert.False(t, tmpl.TextOnly())
}

func TestParseVariableOccurrences(t *testing.T) {
	tmpl := mustParse(t, "<!-- ~%html:name% -->John<!--%--> and ~%name%")

	require.Equal(t, 3, tmpl.NumParts())
	first := tmpl.Part(0).(*VariablePart)
	assert.Equal(t, "html", first.Group())
	placeholder, ok := first.Placeholder()
	assert.True(t, ok)
	assert.Equal(t, "John", placeholder)

	assert.Equal(t, " and ", tmpl.Part(1).(*TextPart).Text())
	assert.Equal(t, []int{0, 2}, tmpl.VariableIndices("name"))
	if diff := cmp.Diff([]string{"name"}, tmpl.VariableNames()); diff != "" {
		t.Errorf("VariableNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDottedVariable(t *testing.T) {
	tmpl := mustParse(t, "~%company.address.city%")
	assert.True(t, tmpl.HasVariable("company.address.city"))
}

func TestParseInlineVariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bare", "<tr>~%%begin:row%<td>~%v%</td>~%%end:row%</tr>"},
		{"comment tags", "<tr><!-- ~%%begin:row% --><td>~%v%</td><!-- ~%%end:row% --></tr>"},
		{"comment block", "<tr><!-- ~%%begin:row%<td>~%v%</td>~%%end:row% --></tr>"},
		{"comment tags without spaces", "<tr><!--~%%begin:row%--><td>~%v%</td><!--~%%end:row%--></tr>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := mustParse(t, tt.src)

			require.Equal(t, 3, tmpl.NumParts())
			assert.Equal(t, "<tr>", tmpl.Part(0).(*TextPart).Text())
			assert.Equal(t, "</tr>", tmpl.Part(2).(*TextPart).Text())

			row, ok := tmpl.Nested("row")
			require.True(t, ok)
			assert.Equal(t, "row", row.Name())
			assert.Same(t, tmpl, row.Parent())
			assert.True(t, row.Location().IsString())
			require.Equal(t, 3, row.NumParts())
			assert.Equal(t, "<td>", row.Part(0).(*TextPart).Text())
			assert.Equal(t, "v", row.Part(1).(*VariablePart).Name())
			assert.Equal(t, "</td>", row.Part(2).(*TextPart).Text())
		})
	}
}

func TestParseRecursiveSameName(t *testing.T) {
	tmpl := mustParse(t, "~%%begin:x%A~%%begin:x%B~%%end:x%C~%%end:x%")

	outer, ok := tmpl.Nested("x")
	require.True(t, ok)
	require.Equal(t, 3, outer.NumParts())
	assert.Equal(t, "A", outer.Part(0).(*TextPart).Text())
	assert.Equal(t, "C", outer.Part(2).(*TextPart).Text())

	inner, ok := outer.Nested("x")
	require.True(t, ok)
	assert.True(t, inner.TextOnly())
	assert.Equal(t, "B", inner.Text())
	assert.Equal(t, "x.x", FQName(inner))
}

func TestParseSiblingTemplates(t *testing.T) {
	tmpl := mustParse(t, "~%%begin:a%1~%%end:a%-~%%begin:b%2~%%end:b%")
	assert.Equal(t, []string{"a", "b"}, tmpl.NestedNames())
	assert.Equal(t, []string{"a", "b"}, tmpl.Names())
}

func TestParseDitchBlocks(t *testing.T) {
	tmpl := mustParse(t, "a<!--%%-->hidden ~%x%<!--%%-->b")

	assert.True(t, tmpl.TextOnly())
	assert.Equal(t, "ab", tmpl.Text())
	assert.False(t, tmpl.HasVariable("x"))
}

func TestParsePlaceholders(t *testing.T) {
	tmpl := mustParse(t, "a<!--%-->preview\ntext<!--%-->b")
	assert.Equal(t, "ab", tmpl.Text())
}

func TestParseDefGroup(t *testing.T) {
	tmpl := mustParse(t, "<!-- ~%def:title% -->Untitled<!--%-->")
	v := tmpl.Part(0).(*VariablePart)
	assert.Equal(t, "def", v.Group())
	p, _ := v.Placeholder()
	assert.Equal(t, "Untitled", p)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ParseErrorCode
		arg  string
		line int
		col  int
	}{
		{"missing end tag", "~%%begin:foo%\n  bar\n", MissingEndTag, "foo", 1, 1},
		{"missing end tag second line", "line1\nab ~%%begin:x%", MissingEndTag, "x", 2, 4},
		{"dangling end tag", "abc\n~%%end:foo%", DanglingEndTag, "foo", 2, 1},
		{"duplicate name", "~%%begin:foo%x~%%end:foo%~%%begin:foo%y~%%end:foo%", DuplicateTemplateName, "foo", 1, 35},
		{"variable named like template", "~%foo%~%%begin:foo%x~%%end:foo%", VarWithTemplateName, "foo", 1, 3},
		{"structural group", "~%begin:x%", IllegalVarPrefix, "begin", 1, 3},
		{"def without placeholder", "~%def:x%", NoPlaceholderDefined, "x", 1, 3},
		{"begin not terminated", "a ~%%begin:foo", BeginTagNotTerminated, "~%%begin:", 1, 3},
		{"end not terminated", "~%%end:foo", EndTagNotTerminated, "~%%end:", 1, 1},
		{"include not terminated", "~%%include:foo.html%", IncludeTagNotTerminated, "~%%include:", 1, 1},
		{"ditch block not closed", "x<!--%%-->y", DitchBlockNotClosed, ditchToken, 1, 2},
		{"placeholder not closed", "a<!--%-->b", PlaceholderNotClosed, placeholderToken, 1, 2},
		{"missing end tag in nested template", "<p>\n~%%begin:outer%\n  ~%%begin:inner%\n~%%end:outer%", MissingEndTag, "inner", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine().FromString(tt.src)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			assert.Equal(t, tt.code, perr.Code, perr.Error())
			assert.Equal(t, tt.arg, perr.Arg)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.col, perr.Column)
		})
	}
}

func TestClosingTag(t *testing.T) {
	tags := DefaultSyntax().tagsFor(commentNone, "x")

	tests := []struct {
		name  string
		text  string
		start int
		ok    bool
	}{
		{"simple", "a~%%end:x%", 1, true},
		{"nested", "~%%begin:x%~%%end:x%b~%%end:x%", 21, true},
		{"unbalanced", "~%%begin:x%~%%end:x%", 0, false},
		{"none", "abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _, ok := closingTag(tags, tt.text, 0)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.start, start)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	line, col := position("ab\ncd\nef", 4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)

	line, col = position("abc", 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}

func TestBasename(t *testing.T) {
	assert.Equal(t, "footer", basename("/mail/footer.html"))
	assert.Equal(t, "footer", basename("footer"))
	assert.Equal(t, "a.b", basename("dir/a.b.html"))
}

func siteResolver() resolve.PathResolver {
	return resolve.NewFSResolver("site", fstest.MapFS{
		"page.html":   {Data: []byte("<body>~%title%~%%include:footer.html%%</body>")},
		"footer.html": {Data: []byte("<footer>~%year%</footer>")},
		"bad.html":    {Data: []byte("ok\n~%%begin:x%")},
		"a.html":      {Data: []byte("a")},
		"b.html":      {Data: []byte("b")},
		"c.html":      {Data: []byte("c")},
	})
}

func TestParseInclude(t *testing.T) {
	e := NewEngine(WithResolver(siteResolver()))

	page, err := e.FromFile("page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", page.Path())

	footer, ok := page.Nested("footer")
	require.True(t, ok)
	assert.Same(t, page, footer.Parent())
	assert.Equal(t, "footer.html", footer.Path())
	assert.True(t, footer.HasVariable("year"))

	_, isIncluded := page.Part(page.NumParts() - 2).(*IncludedPart)
	assert.True(t, isIncluded)
}

func TestParseIncludeWithName(t *testing.T) {
	e := NewEngine(WithResolver(siteResolver()))

	tmpl, err := e.FromString("~%%include:foot:footer.html%%<!-- ~%%include:end:footer.html%% -->")
	require.NoError(t, err)
	assert.Equal(t, []string{"foot", "end"}, tmpl.NestedNames())

	foot, _ := tmpl.Nested("foot")
	end, _ := tmpl.Nested("end")
	assert.NotSame(t, foot, end)
	assert.Equal(t, "foot", foot.Name())
}

func TestParseIncludeErrors(t *testing.T) {
	e := NewEngine(WithResolver(siteResolver()))

	_, err := e.FromString("~%%include:nope.html%%")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, InvalidIncludePath, perr.Code)
	assert.Equal(t, "nope.html", perr.Arg)
	assert.Equal(t, 12, perr.Column)

	_, err = e.FromString("~%%include:bad.html%%")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, MissingEndTag, perr.Code)
	assert.Equal(t, "bad.html", perr.Path)
	assert.Equal(t, 2, perr.Line)
}

func TestParseInlineEndTagOnOwnLine(t *testing.T) {
	tests := []struct {
		name string
		src  string
		body string
	}{
		{"end tag alone", "<ul>\n~%%begin:i%\n<li>x</li>\n~%%end:i%\n</ul>", "<li>x</li>\n"},
		{"end tag indented", "~%%begin:i%  \n  A\n  ~%%end:i%\t\n", "  A\n  "},
		{"crlf", "~%%begin:i%\r\nA\r\n~%%end:i%\r\n", "A\r\n"},
		{"end tag after text", "~%%begin:i%\nA~%%end:i%", "\nA"},
		{"first line not empty", "~%%begin:i%A\n~%%end:i%", "A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nested, ok := mustParse(t, tt.src).Nested("i")
			require.True(t, ok)
			assert.Equal(t, tt.body, nested.String())
		})
	}

	// offsets still point into the top-level source
	_, err := NewEngine().FromString("~%%begin:i%\n  ~%%begin:j%\n~%%end:i%")
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, MissingEndTag, perr.Code)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 3, perr.Column)
}

func TestParseIncludeCycle(t *testing.T) {
	r := resolve.NewFSResolver("cycles", fstest.MapFS{
		"self.html":   {Data: []byte("[~%%include:self.html%%]")},
		"ping.html":   {Data: []byte("ping ~%%include:pong.html%%")},
		"pong.html":   {Data: []byte("pong ~%%include:ping.html%%")},
		"twice.html":  {Data: []byte("~%%include:one:leaf.html%%~%%include:two:leaf.html%%")},
		"nested.html": {Data: []byte("~%%include:twice.html%%")},
		"leaf.html":   {Data: []byte("leaf")},
		"inline.html": {Data: []byte("~%%begin:x%~%%include:inline.html%%~%%end:x%")},
	})

	tests := []struct {
		path string
		// empty when the template parses
		cyclePath string
	}{
		{path: "self.html", cyclePath: "self.html"},
		{path: "ping.html", cyclePath: "pong.html"},
		{path: "pong.html", cyclePath: "ping.html"},
		{path: "inline.html", cyclePath: "inline.html"},
		{path: "twice.html"},
		{path: "nested.html"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e := NewEngine(WithResolver(r))
			_, err := e.FromFile(tt.path)
			if tt.cyclePath == "" {
				require.NoError(t, err)
				return
			}
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, IncludeCycle, perr.Code)
			assert.Equal(t, tt.cyclePath, perr.Path)
			assert.Equal(t, 0, e.Cache().Stats().Size)
		})
	}
}

func TestString(t *testing.T) {
	src := "<!-- ~%html:name% -->John<!--%-->, ~%%begin:x%~%y%~%%end:x%"
	assert.Equal(t, src, mustParse(t, src).String())

	e := NewEngine(WithResolver(siteResolver()))
	tmpl, err := e.FromString("[~%%include:foot:footer.html%%]")
	require.NoError(t, err)
	assert.Equal(t, "[~%%include:foot:footer.html%%]", tmpl.String())
}

func TestCustomSyntax(t *testing.T) {
	s, err := NewSyntax("{{", "}}", "{{#", "}}")
	require.NoError(t, err)

	tmpl, err := NewEngine(WithSyntax(s)).FromString("{{#begin:row}}[{{v}}]{{#end:row}}")
	require.NoError(t, err)

	row, ok := tmpl.Nested("row")
	require.True(t, ok)
	assert.True(t, row.HasVariable("v"))
	assert.Equal(t, "{{#begin:row}}[{{v}}]{{#end:row}}", tmpl.String())

	_, err = NewSyntax("~%", "%", "~%", "%")
	assert.Error(t, err)
}
