package stringify

import (
	"fmt"
	"net/url"
	"reflect"
	"text/template"

	"github.com/aymerick/raymond"
	"github.com/microcosm-cc/bluemonday"
)

// Stringifier formats a variable value. Implementations must accept nil.
type Stringifier interface {
	Stringify(v any) (string, error)
}

// Func adapts a function to the Stringifier interface
type Func func(v any) (string, error)

// Stringify calls f(v)
func (f Func) Stringify(v any) (string, error) {
	return f(v)
}

// Default formats non-nil values with fmt.Sprint and nil as ""
var Default Stringifier = Func(func(v any) (string, error) {
	if IsNil(v) {
		return "", nil
	}
	return fmt.Sprint(v), nil
})

// Escaper returns a stringifier that formats the value like Default and
// then applies escape to the result. Nil stays "".
func Escaper(escape func(string) string) Stringifier {
	return Func(func(v any) (string, error) {
		if IsNil(v) {
			return "", nil
		}
		return escape(fmt.Sprint(v)), nil
	})
}

// IsNil reports whether v is nil or a typed nil
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

var strictPolicy = bluemonday.StrictPolicy()

var (
	// EscapeHTML escapes text for HTML element content
	EscapeHTML = Escaper(raymond.Escape)

	// EscapeAttr escapes text for a quoted HTML attribute value
	EscapeAttr = Escaper(raymond.Escape)

	// EscapeJS escapes text for a JavaScript string literal
	EscapeJS = Escaper(template.JSEscapeString)

	// EscapeJSAttr escapes text for a JavaScript string inside an HTML
	// attribute, e.g. onclick="alert('~%jsattr:msg%')"
	EscapeJSAttr = Escaper(func(s string) string {
		return raymond.Escape(template.JSEscapeString(s))
	})

	// EscapeParam escapes text for a URL query parameter
	EscapeParam = Escaper(url.QueryEscape)

	// EscapePath escapes text for a URL path segment
	EscapePath = Escaper(url.PathEscape)

	// StripHTML removes all markup, keeping the text content
	StripHTML = Escaper(strictPolicy.Sanitize)
)
