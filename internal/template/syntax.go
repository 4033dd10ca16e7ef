package template

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const (
	// DefaultVarStart opens a variable: ~%name%
	DefaultVarStart = "~%"
	// DefaultVarEnd closes a variable
	DefaultVarEnd = "%"
	// DefaultTagStart opens a nested template tag: ~%%begin:name%
	DefaultTagStart = "~%%"
	// DefaultTagEnd closes a nested template tag. An include tag is closed
	// by two of these: ~%%include:path%%
	DefaultTagEnd = "%"
)

const (
	ditchToken       = "<!--%%-->"
	placeholderToken = "<!--%-->"

	reName      = `[a-zA-Z0-9_\-]+`
	reGroup     = `[a-zA-Z][a-zA-Z0-9_\-]*`
	rePath      = reName + `(?:\.` + reName + `)*`
	reIncPath   = `[a-zA-Z0-9_~:;/?#!$&%,@+.=\-\[\]()]+?`
	reCmtOpen   = `<!-- ?`
	reCmtClose  = ` ?-->`
	rePlacehold = `(?s)` + placeholderToken + `.*?` + placeholderToken
)

// commentType selects one of the three syntactic variants of an inline
// template
type commentType int

const (
	// <!-- ~%%begin:foo% --> ... <!-- ~%%end:foo% -->
	commentTags commentType = iota
	// <!-- ~%%begin:foo% ... ~%%end:foo% -->
	commentBlock
	// ~%%begin:foo% ... ~%%end:foo%
	commentNone
)

// Syntax holds the delimiters of the template language and the regular
// expressions compiled from them. A Syntax is immutable and safe for
// concurrent use.
type Syntax struct {
	VarStart string
	VarEnd   string
	TagStart string
	TagEnd   string

	variable    *regexp.Regexp
	cmtVariable *regexp.Regexp
	include     *regexp.Regexp
	cmtInclude  *regexp.Regexp
	begin       [3]*regexp.Regexp
	danglingEnd *regexp.Regexp
	placeholder *regexp.Regexp

	beginToken   string
	endToken     string
	includeToken string

	// per-name begin/end patterns, keyed by commentType and name
	named sync.Map
}

var (
	defaultSyntax     *Syntax
	defaultSyntaxOnce sync.Once
)

// DefaultSyntax returns the syntax with the default delimiters
func DefaultSyntax() *Syntax {
	defaultSyntaxOnce.Do(func() {
		s, err := NewSyntax(DefaultVarStart, DefaultVarEnd, DefaultTagStart, DefaultTagEnd)
		if err != nil {
			panic(fmt.Sprintf("failed to compile default syntax: %v", err))
		}
		defaultSyntax = s
	})
	return defaultSyntax
}

// NewSyntax compiles a syntax from the four delimiters
func NewSyntax(varStart, varEnd, tagStart, tagEnd string) (*Syntax, error) {
	if varStart == "" || varEnd == "" || tagStart == "" || tagEnd == "" {
		return nil, fmt.Errorf("delimiters must not be empty")
	}
	if varStart == tagStart {
		return nil, fmt.Errorf("variable start %q must differ from tag start", varStart)
	}

	s := &Syntax{
		VarStart:     varStart,
		VarEnd:       varEnd,
		TagStart:     tagStart,
		TagEnd:       tagEnd,
		beginToken:   tagStart + "begin:",
		endToken:     tagStart + "end:",
		includeToken: tagStart + "include:",
	}

	vs, ve := regexp.QuoteMeta(varStart), regexp.QuoteMeta(varEnd)
	ts, te := regexp.QuoteMeta(tagStart), regexp.QuoteMeta(tagEnd)

	variable := vs + `(?:(` + reGroup + `):)?(` + rePath + `)` + ve
	include := ts + `include:(?:(` + reName + `):)?(` + reIncPath + `)` + te + te
	begin := ts + `begin:(` + reName + `)` + te

	var err error
	compile := func(expr string) *regexp.Regexp {
		if err != nil {
			return nil
		}
		var re *regexp.Regexp
		re, err = regexp.Compile(expr)
		return re
	}

	s.variable = compile(variable)
	s.cmtVariable = compile(reCmtOpen + variable + reCmtClose + `(?:(.*?)` + placeholderToken + `)?`)
	s.include = compile(include)
	s.cmtInclude = compile(reCmtOpen + include + reCmtClose)
	s.begin[commentTags] = compile(reCmtOpen + begin + reCmtClose)
	s.begin[commentBlock] = compile(reCmtOpen + begin)
	s.begin[commentNone] = compile(begin)
	s.danglingEnd = compile(ts + `end:(` + rePath + `)` + te)
	s.placeholder = compile(rePlacehold)
	if err != nil {
		return nil, fmt.Errorf("failed to compile syntax: %w", err)
	}

	return s, nil
}

type namedTags struct {
	begin *regexp.Regexp
	end   *regexp.Regexp
}

type namedKey struct {
	ct   commentType
	name string
}

// tagsFor returns the begin and end patterns of one specific template name
func (s *Syntax) tagsFor(ct commentType, name string) namedTags {
	key := namedKey{ct, name}
	if v, ok := s.named.Load(key); ok {
		return v.(namedTags)
	}

	ts, te := regexp.QuoteMeta(s.TagStart), regexp.QuoteMeta(s.TagEnd)
	n := regexp.QuoteMeta(name)
	begin := ts + `begin:` + n + te
	end := ts + `end:` + n + te

	var tags namedTags
	switch ct {
	case commentTags:
		tags = namedTags{
			begin: regexp.MustCompile(reCmtOpen + begin + reCmtClose),
			end:   regexp.MustCompile(reCmtOpen + end + reCmtClose),
		}
	case commentBlock:
		tags = namedTags{
			begin: regexp.MustCompile(reCmtOpen + begin),
			end:   regexp.MustCompile(end + ` ?-->?`),
		}
	default:
		tags = namedTags{
			begin: regexp.MustCompile(begin),
			end:   regexp.MustCompile(end),
		}
	}

	v, _ := s.named.LoadOrStore(key, tags)
	return v.(namedTags)
}

// VariableTag formats a bare variable in this syntax
func (s *Syntax) VariableTag(group, name string) string {
	if group == "" {
		return s.VarStart + name + s.VarEnd
	}
	return s.VarStart + group + ":" + name + s.VarEnd
}

func (s *Syntax) beginTag(name string) string {
	return s.beginToken + name + s.TagEnd
}

func (s *Syntax) endTag(name string) string {
	return s.endToken + name + s.TagEnd
}

func (s *Syntax) includeTag(name, path string) string {
	var sb strings.Builder
	sb.WriteString(s.includeToken)
	if name != basename(path) {
		sb.WriteString(name)
		sb.WriteByte(':')
	}
	sb.WriteString(path)
	sb.WriteString(s.TagEnd)
	sb.WriteString(s.TagEnd)
	return sb.String()
}
