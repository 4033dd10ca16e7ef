package resolve

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// ErrNotFound is returned (wrapped) when a path does not resolve to a source
var ErrNotFound = errors.New("template source not found")

// PathResolver loads template sources by path
type PathResolver interface {
	// Resolve opens the source at the given path
	Resolve(path string) (io.ReadCloser, error)

	// IsValidPath reports whether the path can be resolved. When known is
	// false the resolver cannot tell without loading the source, and callers
	// should assume the path is valid and fail lazily.
	IsValidPath(path string) (valid bool, known bool)
}

// Identifier is implemented by resolvers whose identity is more specific
// than their type (for example a Redis resolver bound to a key prefix).
type Identifier interface {
	ID() string
}

// Identity returns the string used to tell resolvers apart in cache keys
func Identity(r PathResolver) string {
	if r == nil {
		return ""
	}
	if id, ok := r.(Identifier); ok {
		return fmt.Sprintf("%T(%s)", r, id.ID())
	}
	return fmt.Sprintf("%T", r)
}

// ReadAll resolves the path and returns the whole source
func ReadAll(r PathResolver, p string) (string, error) {
	rc, err := r.Resolve(p)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}
	return string(data), nil
}

// FileResolver resolves paths against the local file system
type FileResolver struct {
	root string
}

// NewFileResolver creates a file resolver. Relative paths are resolved
// against root; an empty root means the working directory.
func NewFileResolver(root string) *FileResolver {
	return &FileResolver{root: root}
}

// Abs returns the absolute file name for a path
func (r *FileResolver) Abs(p string) string {
	name := p
	if !filepath.IsAbs(name) && r.root != "" {
		name = filepath.Join(r.root, name)
	}
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}
	return name
}

// Resolve opens the file
func (r *FileResolver) Resolve(p string) (io.ReadCloser, error) {
	f, err := os.Open(r.Abs(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return f, nil
}

// IsValidPath reports whether the path names a regular file
func (r *FileResolver) IsValidPath(p string) (bool, bool) {
	info, err := os.Stat(r.Abs(p))
	if err != nil {
		return false, true
	}
	return info.Mode().IsRegular(), true
}

// ID makes resolvers with different roots distinct
func (r *FileResolver) ID() string {
	return r.root
}

// FSResolver resolves paths against an fs.FS
type FSResolver struct {
	fsys fs.FS
	name string
}

// NewFSResolver creates a resolver reading from fsys. The name identifies
// the file system in cache keys.
func NewFSResolver(name string, fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys, name: name}
}

func (r *FSResolver) clean(p string) string {
	return path.Clean(trimLeadingSlash(p))
}

// Resolve opens the file inside the file system
func (r *FSResolver) Resolve(p string) (io.ReadCloser, error) {
	f, err := r.fsys.Open(r.clean(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return f, nil
}

// IsValidPath reports whether the path names a regular file
func (r *FSResolver) IsValidPath(p string) (bool, bool) {
	info, err := fs.Stat(r.fsys, r.clean(p))
	if err != nil {
		return false, true
	}
	return info.Mode().IsRegular(), true
}

// ID returns the file system name
func (r *FSResolver) ID() string {
	return r.name
}

func trimLeadingSlash(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}
