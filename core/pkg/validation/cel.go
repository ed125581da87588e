// Package validation evaluates CEL expressions against the JSON form of
// resources. It backs per-kind validation rules and client side filters.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/dtomasi/yangtze/core/pkg/codec"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// environment declares self as the only variable.
func environment() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("self", cel.DynType),
			ext.Strings(),
		)
	})
	return env, envErr
}

// Expression is a compiled boolean CEL expression.
type Expression struct {
	source  string
	program cel.Program
}

// Compile parses and type-checks source. The expression must yield a bool.
func Compile(source string) (*Expression, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}

	e, err := environment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := e.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile %q: %w", source, issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q must evaluate to bool, not %s", source, out)
	}

	program, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build program for %q: %w", source, err)
	}
	return &Expression{source: source, program: program}, nil
}

// MustCompile is Compile that panics on error, for package level rules.
func MustCompile(source string) *Expression {
	x, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return x
}

func (x *Expression) String() string {
	return x.source
}

// Evaluate reports whether obj satisfies the expression.
func (x *Expression) Evaluate(obj any) (bool, error) {
	self, err := codec.ToMap(obj)
	if err != nil {
		return false, err
	}
	return x.EvaluateMap(self)
}

// EvaluateMap is Evaluate on an object already in generic JSON form.
func (x *Expression) EvaluateMap(self map[string]any) (bool, error) {
	val, _, err := x.program.Eval(map[string]any{"self": self})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %q: %w", x.source, err)
	}
	result, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, not bool", x.source, val.Value())
	}
	return result, nil
}
