package access

// Accessor extracts named values from application data. A name may be a
// dotted path. ok is false when the data does not define the name; err is
// reserved for genuine failures.
type Accessor interface {
	Access(data any, name string) (value any, ok bool, err error)
}

// Func adapts a function to the Accessor interface
type Func func(data any, name string) (any, bool, error)

// Access calls f(data, name)
func (f Func) Access(data any, name string) (any, bool, error) {
	return f(data, name)
}

type undefined struct{}

func (undefined) String() string { return "<undefined>" }

// Undefined can be passed as a value to any setter to leave the variable
// or nested template untouched
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}
