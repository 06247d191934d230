package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrNotNumeric is returned when an expression evaluates to a non-number.
var ErrNotNumeric = errors.New("formula result is not numeric")

// Env is the variable set an expression is evaluated against.
// Values are float64 attribute values or nested maps (e.g. "Target").
type Env map[string]any

// Resolver evaluates numeric formula expressions.
// Compiled programs are cached per expression string.
type Resolver struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewResolver creates a Resolver with an empty program cache.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]*vm.Program, 32)}
}

// Resolve evaluates expression against env.
// Plain numeric literals skip the expression engine.
func (r *Resolver) Resolve(expression string, env Env) (float64, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, fmt.Errorf("empty formula")
	}
	if v, err := strconv.ParseFloat(expression, 64); err == nil {
		return v, nil
	}

	program, err := r.program(expression)
	if err != nil {
		return 0, err
	}

	out, err := expr.Run(program, map[string]any(env))
	if err != nil {
		return 0, fmt.Errorf("evaluating formula %q: %w", expression, err)
	}
	return toFloat(expression, out)
}

// CachedPrograms returns the number of compiled expressions.
func (r *Resolver) CachedPrograms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Resolver) program(expression string) (*vm.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[expression]; ok {
		return p, nil
	}
	p, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compiling formula %q: %w", expression, err)
	}
	r.cache[expression] = p
	return p, nil
}

func toFloat(expression string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %q yielded %T", ErrNotNumeric, expression, v)
	}
}

// Substitute replaces every {Key} placeholder with params[Key] in one pass.
// Placeholders without a matching key are left untouched.
func Substitute(expression string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(expression, "{") {
		return expression
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(expression)
}
