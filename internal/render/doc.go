// Package render populates parsed templates and writes their output.
//
// A Session tracks, for one template instantiation, which variables are
// set and how often each nested template is repeated. Values are
// stringified when they are set, so rendering is a plain walk over the
// template parts:
//
//	tmpl, _ := engine.FromString("<ul>~%%begin:item%<li>~%name%</li>~%%end:item%</ul>")
//	s := render.NewSession(tmpl)
//	_ = s.Populate("item", []map[string]any{{"name": "a"}, {"name": "b"}})
//	out, _ := s.RenderString() // <ul><li>a</li><li>b</li></ul>
//
// Variables are write-once until unset, and the repetition count of a
// nested template is fixed the first time it is instantiated. The first
// render freezes the session.
package render
