package visibility

import (
	"github.com/goliatone/go-formruntime/pkg/schema"
)

// Resolver evaluates conditionalDisplay blocks. The optional Evaluator handles
// the expression clause; rules are always evaluated locally.
type Resolver struct {
	evaluator Evaluator
	extras    map[string]any
	onError   func(fieldPath string, err error)
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithEvaluator sets the evaluator used for conditionalDisplay.expression.
func WithEvaluator(e Evaluator) ResolverOption {
	return func(r *Resolver) {
		r.evaluator = e
	}
}

// WithExtras exposes additional values to expression evaluation.
func WithExtras(extras map[string]any) ResolverOption {
	return func(r *Resolver) {
		r.extras = extras
	}
}

// WithErrorHandler receives evaluation errors, which otherwise resolve to
// hidden.
func WithErrorHandler(fn func(fieldPath string, err error)) ResolverOption {
	return func(r *Resolver) {
		r.onError = fn
	}
}

// NewResolver builds a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Visible reports whether a field with the given conditional display should be
// shown. values is the flattened value map used for expressions; lookup is the
// scope-aware rule lookup.
func (r *Resolver) Visible(fieldPath string, display *schema.ConditionalDisplay, lookup Lookup, values map[string]any) bool {
	if display == nil {
		return true
	}
	if !EvaluateRules(display.Rules, display.Logic, lookup) {
		return false
	}
	if display.Expression == "" {
		return true
	}
	if r == nil || r.evaluator == nil {
		r.report(fieldPath, ErrNoEvaluator)
		return false
	}
	ok, err := r.evaluator.Eval(fieldPath, display.Expression, Context{Values: values, Extras: r.extras})
	if err != nil {
		r.report(fieldPath, err)
		return false
	}
	return ok
}

func (r *Resolver) report(fieldPath string, err error) {
	if r != nil && r.onError != nil {
		r.onError(fieldPath, err)
	}
}
