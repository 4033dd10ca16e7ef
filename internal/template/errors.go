package template

import (
	"fmt"
	"strings"
)

// ParseErrorCode identifies the kind of a parse error
type ParseErrorCode int

const (
	DuplicateTemplateName ParseErrorCode = iota + 1
	IllegalTemplateName
	VarWithTemplateName
	NoPlaceholderDefined
	IllegalVarPrefix
	InvalidIncludePath
	BeginTagNotTerminated
	EndTagNotTerminated
	IncludeTagNotTerminated
	MissingEndTag
	DanglingEndTag
	DitchBlockNotClosed
	PlaceholderNotClosed
	IncludeCycle
)

var parseErrorCodes = map[ParseErrorCode]string{
	DuplicateTemplateName:   "DuplicateTemplateName",
	IllegalTemplateName:     "IllegalTemplateName",
	VarWithTemplateName:     "VarWithTemplateName",
	NoPlaceholderDefined:    "NoPlaceholderDefined",
	IllegalVarPrefix:        "IllegalVarPrefix",
	InvalidIncludePath:      "InvalidIncludePath",
	BeginTagNotTerminated:   "BeginTagNotTerminated",
	EndTagNotTerminated:     "EndTagNotTerminated",
	IncludeTagNotTerminated: "IncludeTagNotTerminated",
	MissingEndTag:           "MissingEndTag",
	DanglingEndTag:          "DanglingEndTag",
	DitchBlockNotClosed:     "DitchBlockNotClosed",
	PlaceholderNotClosed:    "PlaceholderNotClosed",
	IncludeCycle:            "IncludeCycle",
}

func (c ParseErrorCode) String() string {
	if s, ok := parseErrorCodes[c]; ok {
		return s
	}
	return fmt.Sprintf("ParseErrorCode(%d)", int(c))
}

func (c ParseErrorCode) message(arg string) string {
	switch c {
	case DuplicateTemplateName:
		return fmt.Sprintf("duplicate template name %q", arg)
	case IllegalTemplateName:
		return fmt.Sprintf("illegal template name %q", arg)
	case VarWithTemplateName:
		return fmt.Sprintf("variable %q has the same name as a nested template", arg)
	case NoPlaceholderDefined:
		return fmt.Sprintf("variable %q in group def requires a placeholder", arg)
	case IllegalVarPrefix:
		return fmt.Sprintf("illegal variable group %q", arg)
	case InvalidIncludePath:
		return fmt.Sprintf("invalid include path %q", arg)
	case BeginTagNotTerminated:
		return "begin tag not terminated"
	case EndTagNotTerminated:
		return "end tag not terminated"
	case IncludeTagNotTerminated:
		return "include tag not terminated"
	case MissingEndTag:
		return fmt.Sprintf("missing end tag for template %q", arg)
	case DanglingEndTag:
		return fmt.Sprintf("dangling end tag for template %q", arg)
	case DitchBlockNotClosed:
		return "ditch block not closed"
	case PlaceholderNotClosed:
		return "placeholder not closed"
	case IncludeCycle:
		return fmt.Sprintf("template %q includes itself", arg)
	}
	return c.String()
}

// ParseError reports a malformed template. Offset is a byte offset into the
// top-level source of the file being parsed; Line and Column are 1-based.
type ParseError struct {
	Code   ParseErrorCode
	Arg    string
	Offset int
	Line   int
	Column int
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "error at line %d, column %d: %s", e.Line, e.Column, e.Code.message(e.Arg))
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// position converts a byte offset into a 1-based line and column
func position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	head := src[:offset]
	line = strings.Count(head, "\n") + 1
	col = offset - strings.LastIndexByte(head, '\n')
	return line, col
}
