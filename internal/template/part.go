package template

// Part is one syntactic unit of a template: *TextPart, *VariablePart,
// *InlinePart or *IncludedPart. The set is closed.
type Part interface {
	// Start is the byte offset of the part in its template's source
	Start() int
	part()
}

// NestedPart is implemented by the two nested template shapes
type NestedPart interface {
	Part
	Name() string
	Template() *Template
}

// TextPart is literal text reproduced verbatim
type TextPart struct {
	start int
	text  string
}

func (p *TextPart) Start() int { return p.start }
func (p *TextPart) part()      {}

// Text returns the literal text
func (p *TextPart) Text() string { return p.text }

// VariablePart is one occurrence of a variable
type VariablePart struct {
	start          int
	name           string
	group          string
	placeholder    string
	hasPlaceholder bool
}

func (p *VariablePart) Start() int { return p.start }
func (p *VariablePart) part()      {}

// Name returns the (possibly dotted) variable name
func (p *VariablePart) Name() string { return p.name }

// Group returns the inline variable group, or "" if none was given
func (p *VariablePart) Group() string { return p.group }

// Placeholder returns the inline placeholder of a comment-wrapped variable
func (p *VariablePart) Placeholder() (string, bool) {
	return p.placeholder, p.hasPlaceholder
}

type nested struct {
	start int
	tmpl  *Template
}

func (n *nested) Start() int          { return n.start }
func (n *nested) part()               {}
func (n *nested) Name() string        { return n.tmpl.name }
func (n *nested) Template() *Template { return n.tmpl }

// InlinePart is a nested template whose source lay between begin and end tags
type InlinePart struct {
	nested
	ct commentType
}

// IncludedPart is a nested template loaded from another location
type IncludedPart struct {
	nested
	path    string
	comment bool
}

// Path returns the include path as written in the source
func (p *IncludedPart) Path() string { return p.path }

// unparsed is a source fragment not yet consumed by a parser pass. It never
// survives into a finished template.
type unparsed struct {
	start int
	text  string
}

func (u *unparsed) Start() int { return u.start }
func (u *unparsed) part()      {}

func (u *unparsed) slice(from, to int) *unparsed {
	return &unparsed{start: u.start + from, text: u.text[from:to]}
}
