package render

import "fmt"

// ErrorCode identifies the kind of render error
type ErrorCode int

const (
	NoSuchVariable ErrorCode = iota + 1
	NoSuchTemplate
	AlreadySet
	Frozen
	NotInstantiated
	RepetitionMismatch
	RepetitionsFixed
	AccessError
	BadStringifier
	StringifierFailed
	NoStringifierForGroup
	NotTextOnly
	NilData
	NotOneVarTemplate
	NotTwoVarTemplate
	InvalidArgument
)

var codeNames = map[ErrorCode]string{
	NoSuchVariable:        "NoSuchVariable",
	NoSuchTemplate:        "NoSuchTemplate",
	AlreadySet:            "AlreadySet",
	Frozen:                "Frozen",
	NotInstantiated:       "NotInstantiated",
	RepetitionMismatch:    "RepetitionMismatch",
	RepetitionsFixed:      "RepetitionsFixed",
	AccessError:           "AccessError",
	BadStringifier:        "BadStringifier",
	StringifierFailed:     "StringifierFailed",
	NoStringifierForGroup: "NoStringifierForGroup",
	NotTextOnly:           "NotTextOnly",
	NilData:               "NilData",
	NotOneVarTemplate:     "NotOneVarTemplate",
	NotTwoVarTemplate:     "NotTwoVarTemplate",
	InvalidArgument:       "InvalidArgument",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Error is returned by session operations. Template is the fully
// qualified name of the template the operation ran against; Name is the
// variable or nested template involved, if any.
type Error struct {
	Code     ErrorCode
	Template string
	Name     string
	Err      error
}

func (e *Error) Error() string {
	msg := e.message()
	if e.Err != nil {
		return fmt.Sprintf("render %s: %s: %v", e.Template, msg, e.Err)
	}
	return fmt.Sprintf("render %s: %s", e.Template, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) message() string {
	switch e.Code {
	case NoSuchVariable:
		return fmt.Sprintf("no such variable: %q", e.Name)
	case NoSuchTemplate:
		return fmt.Sprintf("no such nested template: %q", e.Name)
	case AlreadySet:
		return fmt.Sprintf("variable already set: %q", e.Name)
	case Frozen:
		return "session frozen after rendering"
	case NotInstantiated:
		return fmt.Sprintf("nested template not instantiated yet: %q", e.Name)
	case RepetitionMismatch:
		return fmt.Sprintf("repetition count of %q already fixed to a different value", e.Name)
	case RepetitionsFixed:
		return fmt.Sprintf("repetition count of %q already fixed", e.Name)
	case AccessError:
		return fmt.Sprintf("failed to read %q from data", e.Name)
	case BadStringifier:
		return fmt.Sprintf("stringifier for %q panicked", e.Name)
	case StringifierFailed:
		return fmt.Sprintf("failed to stringify %q", e.Name)
	case NoStringifierForGroup:
		return fmt.Sprintf("no stringifier for the variable group of %q", e.Name)
	case NotTextOnly:
		return fmt.Sprintf("not a text-only template: %q", e.Name)
	case NilData:
		return "nil data for a template that is not text-only"
	case NotOneVarTemplate:
		return fmt.Sprintf("template %q must have exactly one variable", e.Name)
	case NotTwoVarTemplate:
		return fmt.Sprintf("template %q must have exactly two variables", e.Name)
	case InvalidArgument:
		return fmt.Sprintf("invalid argument for %q", e.Name)
	}
	return e.Code.String()
}
