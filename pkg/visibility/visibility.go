// Package visibility decides whether conditionally displayed fields are shown
// and whether skip rules fire.
package visibility

// Evaluator evaluates a free-form boolean condition attached to a field.
// fieldPath is the namespaced id of the field being evaluated.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current field
// values keyed by id, already resolved for the field's scope. Extras lets
// callers inject arbitrary context such as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}
