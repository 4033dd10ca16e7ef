// Package access extracts values from application data for template
// variables and nested templates.
//
// The default PathAccessor walks dotted names through maps, structs,
// slices and raw JSON:
//
//	acc := access.NewPathAccessor(namemap.SnakeCase)
//	v, ok, err := acc.Access(order, "customer.firstName") // order.Customer["first_name"]
//
// Struct fields match by `tmpl` tag first, then by name, then by name
// ignoring case, so ~%firstName% reads a FirstName field. Zero-argument
// methods are read the same way.
//
// An accessor reports a missing name with ok == false and never with an
// error; errors are reserved for real failures. Setters treat Undefined the
// same way, so bulk population can pass whatever the data source returns.
package access
