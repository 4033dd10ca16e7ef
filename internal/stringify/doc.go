// Package stringify formats variable values for output.
//
// A Registry decides which Stringifier formats a given variable occurrence.
// Stringifiers can be bound to a variable group, to a variable of one
// template, to a variable name (optionally with * wildcards) or to a value
// type:
//
//	reg, err := stringify.Configure().
//	    RegisterByName(stringify.Func(formatMoney), "*Price").
//	    RegisterByType(stringify.Func(formatTime), stringify.TypeOf[time.Time]()).
//	    Build()
//
// Standard groups:
//   - text - fmt.Sprint, nil as ""
//   - html - HTML element content
//   - attr - HTML attribute value
//   - js - JavaScript string literal
//   - jsattr - JavaScript string inside an HTML attribute
//   - param - URL query parameter
//   - path - URL path segment
//   - strip - remove all HTML markup
//   - def - renders the inline placeholder when the value is nil
package stringify
