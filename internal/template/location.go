package template

import (
	"path"
	"strings"

	"github.com/aescanero/dago-templates/internal/resolve"
)

// Location is where a template source lives. A Location with an empty
// path describes a string-sourced template; it keeps the resolver so that
// includes inside the string still resolve.
type Location struct {
	path     string
	resolver resolve.PathResolver
}

// NewLocation creates a location for a path resolved by r
func NewLocation(p string, r resolve.PathResolver) Location {
	return Location{path: p, resolver: r}
}

// StringLocation creates the location of a string-sourced template
func StringLocation(r resolve.PathResolver) Location {
	return Location{resolver: r}
}

// Path returns the path, or "" for string-sourced templates
func (l Location) Path() string { return l.path }

// Resolver returns the resolver used for this location and its includes
func (l Location) Resolver() resolve.PathResolver { return l.resolver }

// IsString reports whether the location is string-sourced
func (l Location) IsString() bool { return l.path == "" }

func (l Location) String() string {
	if l.IsString() {
		return "<string>"
	}
	return l.path
}

// key identifies a location in the cache: equal when path and resolver
// identity are equal
type key struct {
	resolver string
	path     string
}

type absoluter interface {
	Abs(string) string
}

func (l Location) key() key {
	p := l.path
	if a, ok := l.resolver.(absoluter); ok {
		p = a.Abs(p)
	}
	return key{resolver: resolve.Identity(l.resolver), path: p}
}

func (l Location) read() (string, error) {
	return resolve.ReadAll(l.resolver, l.path)
}

// basename strips the directory and the final extension of an include path
func basename(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
