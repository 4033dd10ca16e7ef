// Package template parses tilde-percent templates into immutable trees.
//
// A template is plain text (usually HTML) with a small set of markers:
//
//	~%name%                           variable
//	~%html:user.name%                 variable with a variable group
//	<!-- ~%name% -->John<!--%-->      comment-wrapped variable with placeholder
//	~%%begin:row% ... ~%%end:row%     inline nested template
//	~%%include:/mail/footer.html%%    included template, named "footer"
//	~%%include:foot:/footer.html%%    included template with an explicit name
//	<!--%%--> ... <!--%%-->           ditch block, always removed
//	<!--%--> ... <!--%-->             placeholder text, removed from output
//
// Inline templates may also be written with each tag wrapped in an HTML
// comment (<!-- ~%%begin:row% --> ... <!-- ~%%end:row% -->) or with the
// whole block inside one comment (<!-- ~%%begin:row% ... ~%%end:row% -->).
// A template may contain a nested template with its own name.
//
// Example usage:
//
//	engine := template.NewEngine(template.WithLogger(logger))
//
//	tmpl, err := engine.FromString("<ul>~%%begin:item%<li>~%name%</li>~%%end:item%</ul>")
//	if err != nil {
//	    var perr *template.ParseError
//	    if errors.As(err, &perr) {
//	        log.Fatalf("line %d: %s", perr.Line, perr.Code)
//	    }
//	}
//
//	page, err := engine.FromFile("templates/page.html") // cached by path
//
// Templates loaded from a path are cached by the engine's Cache; two loads
// of the same path through the same resolver return the same *Template.
// Templates parsed from strings are never cached.
//
// The delimiters can be changed with NewSyntax and WithSyntax.
package template
