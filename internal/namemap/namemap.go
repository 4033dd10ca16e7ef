// Package namemap maps template variable names to the names used by the
// data layer, e.g. "firstName" in a template to "first_name" in a map.
package namemap

import "github.com/iancoleman/strcase"

// NameMapper maps a template variable name to a data-layer name
type NameMapper interface {
	Map(name string) string
}

// Func adapts a plain function to a NameMapper
type Func func(name string) string

// Map calls f
func (f Func) Map(name string) string {
	return f(name)
}

// Identity leaves names untouched
var Identity NameMapper = Func(func(name string) string { return name })

var (
	// SnakeCase maps "firstName" to "first_name"
	SnakeCase NameMapper = Func(strcase.ToSnake)

	// ScreamingSnakeCase maps "firstName" to "FIRST_NAME"
	ScreamingSnakeCase NameMapper = Func(strcase.ToScreamingSnake)

	// KebabCase maps "firstName" to "first-name"
	KebabCase NameMapper = Func(strcase.ToKebab)

	// CamelCase maps "first_name" to "FirstName"
	CamelCase NameMapper = Func(strcase.ToCamel)

	// LowerCamelCase maps "first_name" to "firstName"
	LowerCamelCase NameMapper = Func(strcase.ToLowerCamel)
)

// ByName returns one of the predefined mappers. It is used to select a
// mapper from configuration.
func ByName(name string) (NameMapper, bool) {
	switch name {
	case "", "identity":
		return Identity, true
	case "snake":
		return SnakeCase, true
	case "screaming-snake":
		return ScreamingSnakeCase, true
	case "kebab":
		return KebabCase, true
	case "camel":
		return CamelCase, true
	case "lower-camel":
		return LowerCamelCase, true
	default:
		return nil, false
	}
}
