package render

import (
	"github.com/aescanero/dago-templates/internal/access"
	"github.com/aescanero/dago-templates/internal/stringify"
)

// config is shared by a root session and all of its descendants
type config struct {
	accessors    *access.Registry
	stringifiers *stringify.Registry
}

// Option configures a session
type Option func(*config)

// WithAccessors sets the registry used by Insert and Populate to read data
func WithAccessors(r *access.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.accessors = r
		}
	}
}

// WithStringifiers sets the registry used to format variable values
func WithStringifiers(r *stringify.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.stringifiers = r
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		accessors:    access.Standard(),
		stringifiers: stringify.Standard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
