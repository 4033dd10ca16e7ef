package template

import (
	"fmt"

	"github.com/aescanero/dago-templates/internal/resolve"
	"go.uber.org/zap"
)

// Engine loads and parses templates. It owns the template cache and the
// syntax; an Engine is safe for concurrent use.
type Engine struct {
	syntax    *Syntax
	cache     *Cache
	cacheSize int
	resolver  resolve.PathResolver
	logger    *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithSyntax sets the delimiters used for parsing
func WithSyntax(s *Syntax) Option {
	return func(e *Engine) {
		if s != nil {
			e.syntax = s
		}
	}
}

// WithCache shares an existing cache
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithCacheSize creates a private cache of the given size. It has no
// effect together with WithCache.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithResolver sets the resolver used by FromFile and by includes inside
// string-sourced templates
func WithResolver(r resolve.PathResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a new template engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		syntax:    DefaultSyntax(),
		cacheSize: Unlimited,
		resolver:  resolve.NewFileResolver(""),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewCache(e.cacheSize, e.logger)
	}
	return e
}

// Cache returns the engine's template cache
func (e *Engine) Cache() *Cache { return e.cache }

// Syntax returns the engine's syntax
func (e *Engine) Syntax() *Syntax { return e.syntax }

// Resolver returns the default resolver
func (e *Engine) Resolver() resolve.PathResolver { return e.resolver }

// FromString parses a template from a string. Included templates are
// resolved with the engine's default resolver. The result is never cached.
func (e *Engine) FromString(src string) (*Template, error) {
	return e.FromStringWithResolver(e.resolver, src)
}

// FromStringWithResolver parses a template from a string, resolving its
// includes with r
func (e *Engine) FromStringWithResolver(r resolve.PathResolver, src string) (*Template, error) {
	if r == nil {
		r = e.resolver
	}
	return newParser(e, RootName, StringLocation(r), src, nil).parse()
}

// FromFile loads a template through the default resolver
func (e *Engine) FromFile(path string) (*Template, error) {
	return e.FromResolver(e.resolver, path)
}

// FromResolver loads a template through r
func (e *Engine) FromResolver(r resolve.PathResolver, path string) (*Template, error) {
	if r == nil {
		r = e.resolver
	}
	if path == "" {
		return nil, fmt.Errorf("template path must not be empty")
	}
	if valid, known := r.IsValidPath(path); known && !valid {
		return nil, fmt.Errorf("failed to load template: %w: %s", resolve.ErrNotFound, path)
	}
	return e.load(NewLocation(path, r), nil)
}

// Validate parses a template from a string and reports the parse error,
// if any
func (e *Engine) Validate(src string) error {
	_, err := e.FromString(src)
	return err
}

// load fetches a file-backed template through the cache. Cached templates
// are always named RootName; include sites adopt a renamed copy. loading
// holds the files whose parse is waiting on this one.
func (e *Engine) load(loc Location, loading []key) (*Template, error) {
	return e.cache.Get(loc, func() (*Template, error) {
		src, err := loc.read()
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", loc.path, err)
		}
		return newParser(e, RootName, loc, src, loading).parse()
	})
}
