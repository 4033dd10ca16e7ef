package template

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// parser turns the source of one template into parts. Inline templates are
// parsed by sub-parsers that share the top-level source so error offsets
// always point into the file the user sees.
type parser struct {
	engine *Engine
	syntax *Syntax
	logger *zap.Logger

	// file is the path reported in errors; root is the whole source of
	// that file and base is the offset of src inside root
	file string
	root string
	base int

	src   string
	name  string
	loc   Location
	names map[string]struct{}

	// files being parsed along the include chain, this one last
	loading []key
}

func newParser(e *Engine, name string, loc Location, src string, loading []key) *parser {
	if !loc.IsString() {
		loading = append(loading[:len(loading):len(loading)], loc.key())
	}
	return &parser{
		engine:  e,
		syntax:  e.syntax,
		logger:  e.logger,
		file:    loc.path,
		root:    src,
		src:     src,
		name:    name,
		loc:     loc,
		names:   make(map[string]struct{}),
		loading: loading,
	}
}

// sub creates the parser of an inline template body starting at offset
// within p.src
func (p *parser) sub(name string, offset int, src string) *parser {
	return &parser{
		engine:  p.engine,
		syntax:  p.syntax,
		logger:  p.logger,
		file:    p.file,
		root:    p.root,
		base:    p.base + offset,
		src:     src,
		name:    name,
		loc:     StringLocation(p.loc.resolver),
		names:   make(map[string]struct{}),
		loading: p.loading,
	}
}

func (p *parser) fail(code ParseErrorCode, arg string, offset int, cause error) *ParseError {
	abs := p.base + offset
	line, col := position(p.root, abs)
	return &ParseError{
		Code:   code,
		Arg:    arg,
		Offset: abs,
		Line:   line,
		Column: col,
		Path:   p.file,
		Err:    cause,
	}
}

func (p *parser) parse() (*Template, error) {
	p.logger.Debug("parsing template",
		zap.String("name", p.name),
		zap.String("location", p.loc.String()),
	)

	parts := p.removeDitchBlocks()

	var err error
	for _, ct := range []commentType{commentTags, commentBlock, commentNone} {
		parts, err = p.apply(parts, func(u *unparsed) ([]Part, error) {
			return p.parseInline(u, ct)
		})
		if err != nil {
			return nil, err
		}
	}

	for _, re := range []*regexp.Regexp{p.syntax.cmtInclude, p.syntax.include} {
		parts, err = p.apply(parts, func(u *unparsed) ([]Part, error) {
			return p.parseIncluded(u, re, re == p.syntax.cmtInclude)
		})
		if err != nil {
			return nil, err
		}
	}

	for _, re := range []*regexp.Regexp{p.syntax.cmtVariable, p.syntax.variable} {
		parts, err = p.apply(parts, func(u *unparsed) ([]Part, error) {
			return p.parseVariables(u, re, re == p.syntax.cmtVariable)
		})
		if err != nil {
			return nil, err
		}
	}

	if parts, err = p.collectText(parts); err != nil {
		return nil, err
	}

	return newTemplate(p.name, p.loc, p.syntax, parts), nil
}

// apply runs one pass over the unparsed fragments, keeping finished parts
func (p *parser) apply(in []Part, pass func(*unparsed) ([]Part, error)) ([]Part, error) {
	out := make([]Part, 0, len(in))
	for _, part := range in {
		u, ok := part.(*unparsed)
		if !ok {
			out = append(out, part)
			continue
		}
		refined, err := pass(u)
		if err != nil {
			return nil, err
		}
		out = append(out, refined...)
	}
	return out, nil
}

// removeDitchBlocks drops every region between a pair of ditch tokens. An
// unpaired token stays in the text and is reported by collectText.
func (p *parser) removeDitchBlocks() []Part {
	var out []Part
	src := p.src
	pos := 0
	for {
		i := strings.Index(src[pos:], ditchToken)
		if i < 0 {
			break
		}
		open := pos + i
		j := strings.Index(src[open+len(ditchToken):], ditchToken)
		if j < 0 {
			break
		}
		if open > pos {
			out = append(out, &unparsed{start: pos, text: src[pos:open]})
		}
		pos = open + len(ditchToken) + j + len(ditchToken)
	}
	if pos < len(src) || len(out) == 0 {
		out = append(out, &unparsed{start: pos, text: src[pos:]})
	}
	return out
}

func (p *parser) claim(name string, offset int) error {
	if name == RootName {
		return p.fail(IllegalTemplateName, name, offset, nil)
	}
	if _, ok := p.names[name]; ok {
		return p.fail(DuplicateTemplateName, name, offset, nil)
	}
	p.names[name] = struct{}{}
	return nil
}

func (p *parser) parseInline(u *unparsed, ct commentType) ([]Part, error) {
	re := p.syntax.begin[ct]
	text := u.text

	var out []Part
	pos := 0
	for pos < len(text) {
		m := re.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[0], pos+m[1]
		name := text[pos+m[2] : pos+m[3]]
		if err := p.claim(name, u.start+pos+m[2]); err != nil {
			return nil, err
		}

		closeStart, closeEnd, ok := closingTag(p.syntax.tagsFor(ct, name), text, end)
		if !ok {
			return nil, p.fail(MissingEndTag, name, u.start+start, nil)
		}

		if start > pos {
			out = append(out, u.slice(pos, start))
		}
		body, bodyStart := text[end:closeStart], end
		if occupiesLine(text, closeStart, closeEnd) {
			n := emptyFirstLine(body)
			body, bodyStart = body[n:], end+n
		}
		child, err := p.sub(name, u.start+bodyStart, body).parse()
		if err != nil {
			return nil, err
		}
		out = append(out, &InlinePart{
			nested: nested{start: u.start + start, tmpl: child},
			ct:     ct,
		})
		pos = closeEnd
	}

	if len(out) == 0 {
		return []Part{u}, nil
	}
	if pos < len(text) {
		out = append(out, u.slice(pos, len(text)))
	}
	return out, nil
}

// closingTag finds the end tag matching a begin tag that ends at from.
// Begin and end tokens of the same name are walked in source order: a begin
// opens one more level, an end at level zero is the match.
func closingTag(tags namedTags, text string, from int) (start, end int, ok bool) {
	rest := text[from:]
	begins := tags.begin.FindAllStringIndex(rest, -1)
	ends := tags.end.FindAllStringIndex(rest, -1)

	depth, b := 0, 0
	for _, e := range ends {
		for b < len(begins) && begins[b][0] < e[0] {
			depth++
			b++
		}
		if depth == 0 {
			return from + e[0], from + e[1], true
		}
		depth--
	}
	return 0, 0, false
}

// occupiesLine reports whether text[from:to] is alone on its line, apart
// from spaces and tabs
func occupiesLine(text string, from, to int) bool {
	for i := from - 1; i >= 0 && text[i] != '\n'; i-- {
		if text[i] != ' ' && text[i] != '\t' {
			return false
		}
	}
	for i := to; i < len(text) && text[i] != '\n' && text[i] != '\r'; i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return false
		}
	}
	return true
}

// emptyFirstLine returns the length of the first line of s, line break
// included, when that line holds nothing but spaces and tabs; otherwise 0
func emptyFirstLine(s string) int {
	i := strings.IndexByte(s, '\n')
	if i < 0 || strings.Trim(s[:i], " \t\r") != "" {
		return 0
	}
	return i + 1
}

func (p *parser) parseIncluded(u *unparsed, re *regexp.Regexp, comment bool) ([]Part, error) {
	text := u.text
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return []Part{u}, nil
	}

	var out []Part
	pos := 0
	for _, m := range matches {
		incPath := text[m[4]:m[5]]
		name := basename(incPath)
		nameOff := m[4]
		if m[2] >= 0 {
			name = text[m[2]:m[3]]
			nameOff = m[2]
		}
		if err := p.claim(name, u.start+nameOff); err != nil {
			return nil, err
		}

		child, err := p.include(name, incPath, u.start+m[4])
		if err != nil {
			return nil, err
		}

		if m[0] > pos {
			out = append(out, u.slice(pos, m[0]))
		}
		out = append(out, &IncludedPart{
			nested:  nested{start: u.start + m[0], tmpl: child},
			path:    incPath,
			comment: comment,
		})
		pos = m[1]
	}
	if pos < len(text) {
		out = append(out, u.slice(pos, len(text)))
	}
	return out, nil
}

// include loads an included template through the engine cache and adopts
// a private copy of it under the include name
func (p *parser) include(name, incPath string, offset int) (*Template, error) {
	r := p.loc.resolver
	if r == nil {
		r = p.engine.resolver
	}
	if valid, known := r.IsValidPath(incPath); known && !valid {
		return nil, p.fail(InvalidIncludePath, incPath, offset, nil)
	}

	loc := NewLocation(incPath, r)
	if slices.Contains(p.loading, loc.key()) {
		return nil, p.fail(IncludeCycle, incPath, offset, nil)
	}
	tmpl, err := p.engine.load(loc, p.loading)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, p.fail(InvalidIncludePath, incPath, offset, err)
	}
	if p.file != "" {
		p.engine.cache.link(NewLocation(p.file, r), loc)
	}
	return tmpl.clone(name), nil
}

func (p *parser) parseVariables(u *unparsed, re *regexp.Regexp, comment bool) ([]Part, error) {
	text := u.text
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return []Part{u}, nil
	}

	var out []Part
	pos := 0
	for _, m := range matches {
		v := &VariablePart{
			start: u.start + m[0],
			name:  text[m[4]:m[5]],
		}
		if m[2] >= 0 {
			v.group = text[m[2]:m[3]]
		}
		if comment && m[6] >= 0 {
			v.placeholder = text[m[6]:m[7]]
			v.hasPlaceholder = true
		}
		if err := p.checkVariable(v, u.start+m[2], u.start+m[4]); err != nil {
			return nil, err
		}

		if m[0] > pos {
			out = append(out, u.slice(pos, m[0]))
		}
		out = append(out, v)
		pos = m[1]
	}
	if pos < len(text) {
		out = append(out, u.slice(pos, len(text)))
	}
	return out, nil
}

func (p *parser) checkVariable(v *VariablePart, groupOff, nameOff int) error {
	if _, ok := p.names[v.name]; ok {
		return p.fail(VarWithTemplateName, v.name, nameOff, nil)
	}
	switch v.group {
	case "":
	case "begin", "end", "include":
		return p.fail(IllegalVarPrefix, v.group, groupOff, nil)
	case "def":
		if !v.hasPlaceholder {
			return p.fail(NoPlaceholderDefined, v.name, groupOff, nil)
		}
	}
	return nil
}

// collectText turns the remaining fragments into text parts. Any structural
// token still present at this point was not part of a well-formed tag.
func (p *parser) collectText(in []Part) ([]Part, error) {
	out := make([]Part, 0, len(in))
	for _, part := range in {
		u, ok := part.(*unparsed)
		if !ok {
			out = append(out, part)
			continue
		}
		if u.text == "" {
			continue
		}
		if err := p.checkGarbage(u); err != nil {
			return nil, err
		}
		if tokens := allIndex(u.text, placeholderToken); len(tokens)%2 == 1 {
			return nil, p.fail(PlaceholderNotClosed, placeholderToken, u.start+tokens[len(tokens)-1], nil)
		}
		text := p.syntax.placeholder.ReplaceAllString(u.text, "")
		if text == "" {
			continue
		}
		out = append(out, &TextPart{start: u.start, text: text})
	}
	return out, nil
}

func (p *parser) checkGarbage(u *unparsed) error {
	s := p.syntax
	if m := s.danglingEnd.FindStringSubmatchIndex(u.text); m != nil {
		return p.fail(DanglingEndTag, u.text[m[2]:m[3]], u.start+m[0], nil)
	}
	checks := []struct {
		token string
		code  ParseErrorCode
	}{
		{s.beginToken, BeginTagNotTerminated},
		{s.endToken, EndTagNotTerminated},
		{s.includeToken, IncludeTagNotTerminated},
		{ditchToken, DitchBlockNotClosed},
	}
	for _, c := range checks {
		if i := strings.Index(u.text, c.token); i >= 0 {
			return p.fail(c.code, c.token, u.start+i, nil)
		}
	}
	return nil
}

func allIndex(s, token string) []int {
	var out []int
	for off := 0; ; {
		i := strings.Index(s[off:], token)
		if i < 0 {
			return out
		}
		out = append(out, off+i)
		off += i + len(token)
	}
}
