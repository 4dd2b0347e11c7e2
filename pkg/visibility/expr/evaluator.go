// Package expr evaluates conditionalDisplay expressions with expr-lang.
//
// Field values are exposed by id (e.g. `plan == "pro" && seats > 5`) and
// extras under the `extras` name. Unknown identifiers evaluate to nil.
package expr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-formruntime/pkg/visibility"
)

// Evaluator compiles and caches boolean expressions.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// New returns an Evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Eval implements visibility.Evaluator. An empty rule is true.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	program, err := e.compile(trimmed)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: compile %s: %w", fieldPath, err)
	}

	out, err := expr.Run(program, env(ctx))
	if err != nil {
		return false, fmt.Errorf("visibility/expr: run %s: %w", fieldPath, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("visibility/expr: %s: expression did not return a bool", fieldPath)
	}
	return result, nil
}

func (e *Evaluator) compile(rule string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(rule,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[rule] = program
	e.mu.Unlock()
	return program, nil
}

func env(ctx visibility.Context) map[string]any {
	out := make(map[string]any, len(ctx.Values)+1)
	for key, value := range ctx.Values {
		out[key] = value
	}
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	out["extras"] = extras
	return out
}
