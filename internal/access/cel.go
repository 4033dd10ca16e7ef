package access

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"

	"github.com/aescanero/dago-templates/internal/namemap"
)

// CELAccessor resolves dotted names by compiling them to CEL index
// expressions over the data, e.g. "order.lines.0" becomes
// data["order"]["lines"][0]. Compiled programs are cached per name.
// Missing keys and out-of-range indexes are reported as undefined.
type CELAccessor struct {
	env    *cel.Env
	mapper namemap.NameMapper
	cache  map[string]cel.Program
	mu     sync.RWMutex
}

// NewCELAccessor creates a new CEL accessor
func NewCELAccessor(m namemap.NameMapper) (*CELAccessor, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("data", decls.Dyn),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &CELAccessor{
		env:    env,
		mapper: m,
		cache:  make(map[string]cel.Program),
	}, nil
}

// Access evaluates the compiled path against data
func (a *CELAccessor) Access(data any, name string) (any, bool, error) {
	if data == nil {
		return nil, false, nil
	}

	program, err := a.getProgram(name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to compile path %q: %w", name, err)
	}

	out, _, err := program.Eval(map[string]any{"data": data})
	if err != nil {
		if isMissing(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("evaluation of %q failed: %w", name, err)
	}

	return out.Value(), true, nil
}

// Expression returns the CEL expression a path compiles to
func (a *CELAccessor) Expression(name string) string {
	var sb strings.Builder
	sb.WriteString("data")
	for _, seg := range strings.Split(name, ".") {
		seg = mapName(a.mapper, seg)
		if _, err := strconv.Atoi(seg); err == nil {
			sb.WriteString("[" + seg + "]")
			continue
		}
		sb.WriteString("[" + strconv.Quote(seg) + "]")
	}
	return sb.String()
}

func isMissing(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such key") ||
		strings.Contains(msg, "out of range")
}

// getProgram gets a compiled program from cache or compiles it
func (a *CELAccessor) getProgram(name string) (cel.Program, error) {
	// Check cache first (read lock)
	a.mu.RLock()
	if program, ok := a.cache[name]; ok {
		a.mu.RUnlock()
		return program, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := a.cache[name]; ok {
		return program, nil
	}

	ast, issues := a.env.Compile(a.Expression(name))
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	program, err := a.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	a.cache[name] = program
	return program, nil
}
