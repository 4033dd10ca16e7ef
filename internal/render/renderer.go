package render

import (
	"fmt"
	"io"

	"github.com/aescanero/dago-templates/internal/template"
)

// Render writes a session's output to w. It walks the template parts once:
// text is copied, variables emit their stringified value when set and
// nested templates emit their repetitions in order. A nested template that
// was never instantiated emits nothing. Render neither freezes nor
// otherwise modifies the session.
func Render(w io.Writer, s *Session) error {
	sw, ok := w.(io.StringWriter)
	if !ok {
		sw = stringWriter{w}
	}
	if err := render(sw, s); err != nil {
		return fmt.Errorf("failed to render template %s: %w", template.FQName(s.tmpl), err)
	}
	return nil
}

func render(w io.StringWriter, s *Session) error {
	for i := 0; i < s.tmpl.NumParts(); i++ {
		switch v := s.tmpl.Part(i).(type) {
		case *template.TextPart:
			if _, err := w.WriteString(v.Text()); err != nil {
				return err
			}
		case *template.VariablePart:
			if val, ok := s.state.value(i); ok {
				if _, err := w.WriteString(val); err != nil {
					return err
				}
			}
		case template.NestedPart:
			t := v.Template()
			children, _ := s.state.children(t)
			if t.TextOnly() {
				for range children {
					if _, err := w.WriteString(t.Text()); err != nil {
						return err
					}
				}
				continue
			}
			for _, c := range children {
				if err := render(w, c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type stringWriter struct {
	w io.Writer
}

func (s stringWriter) WriteString(str string) (int, error) {
	return s.w.Write([]byte(str))
}
