package stringify

// VarGroup is a named formatting category. A variable occurrence can carry
// a group inline (~%html:name%) and callers can pass a default group when
// setting values.
type VarGroup string

// Standard variable groups
const (
	Text   VarGroup = "text"
	HTML   VarGroup = "html"
	JS     VarGroup = "js"
	Attr   VarGroup = "attr"
	JSAttr VarGroup = "jsattr"
	Param  VarGroup = "param"
	Path   VarGroup = "path"
	// Def renders the inline placeholder when the value is nil
	Def   VarGroup = "def"
	Strip VarGroup = "strip"
)

// None means no group
const None VarGroup = ""

func (g VarGroup) String() string {
	return string(g)
}

func standardGroups() map[VarGroup]Stringifier {
	return map[VarGroup]Stringifier{
		Text:   Default,
		HTML:   EscapeHTML,
		JS:     EscapeJS,
		Attr:   EscapeAttr,
		JSAttr: EscapeJSAttr,
		Param:  EscapeParam,
		Path:   EscapePath,
		Strip:  StripHTML,
	}
}
