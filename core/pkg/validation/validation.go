package validation

import (
	"fmt"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/dtomasi/yangtze/core/pkg/codec"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

type compiledRule struct {
	rule v1.ValidationRule
	expr *Expression
}

// Validator checks objects against the validation rules of their kind.
type Validator struct {
	mu    sync.RWMutex
	rules map[string][]compiledRule
}

// NewValidator creates a validator without rules.
func NewValidator() *Validator {
	return &Validator{rules: make(map[string][]compiledRule)}
}

// ForRegistry compiles the rules of every resource in r.
func ForRegistry(r *v1.Registry) (*Validator, error) {
	v := NewValidator()
	for _, info := range r.List() {
		if err := v.Register(info); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register compiles and installs the rules of info, replacing earlier ones
// for the same kind.
func (v *Validator) Register(info v1.ResourceInfo) error {
	compiled := make([]compiledRule, 0, len(info.Validations))
	for _, rule := range info.Validations {
		expr, err := Compile(rule.Rule)
		if err != nil {
			return fmt.Errorf("invalid rule for %s: %w", info.VersionKind, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, expr: expr})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[info.VersionKind.Kind] = compiled
	return nil
}

// Validate checks obj against every rule registered for kind. All failures
// are reported together as one Invalid error.
func (v *Validator) Validate(kind string, obj any) error {
	v.mu.RLock()
	rules := v.rules[kind]
	v.mu.RUnlock()
	if len(rules) == 0 {
		return nil
	}

	self, err := codec.ToMap(obj)
	if err != nil {
		return v1.NewBadRequest(err.Error())
	}

	var errs field.ErrorList
	for _, r := range rules {
		path := fieldPath(r.rule.Field)
		value, _ := codec.Lookup(self, r.rule.Field)

		ok, err := r.expr.EvaluateMap(self)
		switch {
		case err != nil:
			errs = append(errs, field.Invalid(path, value, err.Error()))
		case !ok:
			errs = append(errs, field.Invalid(path, value, r.rule.Message))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	name, _ := codec.Lookup(self, "metadata.name")
	return v1.NewInvalid(kind, fmt.Sprint(name), errs)
}

func fieldPath(dotted string) *field.Path {
	if dotted == "" {
		return field.NewPath("self")
	}
	parts := strings.Split(dotted, ".")
	return field.NewPath(parts[0], parts[1:]...)
}
