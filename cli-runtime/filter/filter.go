// Package filter narrows listed objects with a CEL expression over the JSON
// form of each object, bound as self.
package filter

import (
	"github.com/dtomasi/yangtze/core/pkg/validation"
)

// Where keeps the objects for which its expression holds. The zero value and
// a nil *Where keep everything.
type Where struct {
	expr *validation.Expression
}

// Compile parses expr. An empty expression yields a filter that keeps
// everything.
func Compile(expr string) (*Where, error) {
	if expr == "" {
		return &Where{}, nil
	}
	compiled, err := validation.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Where{expr: compiled}, nil
}

// String returns the source expression.
func (w *Where) String() string {
	if w == nil || w.expr == nil {
		return ""
	}
	return w.expr.String()
}

// Match reports whether obj satisfies the expression. Objects the
// expression cannot be evaluated on, for example because a field is
// missing, do not match.
func (w *Where) Match(obj any) bool {
	if w == nil || w.expr == nil {
		return true
	}
	ok, err := w.expr.Evaluate(obj)
	return err == nil && ok
}

// Apply returns the matching objects in their original order.
func (w *Where) Apply(objs []any) []any {
	out := make([]any, 0, len(objs))
	for _, obj := range objs {
		if w.Match(obj) {
			out = append(out, obj)
		}
	}
	return out
}
