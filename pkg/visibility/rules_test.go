package visibility

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

func mapLookup(m map[string]any) Lookup {
	return func(id string) (any, bool) {
		v, ok := m[id]
		return v, ok
	}
}

func TestEvaluateRule_Operators(t *testing.T) {
	t.Parallel()

	lookup := mapLookup(map[string]any{
		"plan":   "pro",
		"age":    42.0,
		"text":   "hello world",
		"tags":   []string{"a", "b"},
		"agreed": true,
		"blank":  "",
	})

	cases := []struct {
		name string
		rule schema.ConditionalRule
		want bool
	}{
		{"equals", schema.ConditionalRule{Field: "plan", Operator: schema.OpEquals, Value: "pro"}, true},
		{"equals number coerces", schema.ConditionalRule{Field: "age", Operator: schema.OpEquals, Value: 42.0}, true},
		{"equals bool", schema.ConditionalRule{Field: "agreed", Operator: schema.OpEquals, Value: "true"}, true},
		{"notEquals", schema.ConditionalRule{Field: "plan", Operator: schema.OpNotEquals, Value: "free"}, true},
		{"missing equals empty", schema.ConditionalRule{Field: "nope", Operator: schema.OpEquals, Value: ""}, true},
		{"contains", schema.ConditionalRule{Field: "text", Operator: schema.OpContains, Value: "world"}, true},
		{"notContains", schema.ConditionalRule{Field: "text", Operator: schema.OpNotContains, Value: "moon"}, true},
		{"list contains", schema.ConditionalRule{Field: "tags", Operator: schema.OpContains, Value: "b"}, true},
		{"greaterThan", schema.ConditionalRule{Field: "age", Operator: schema.OpGreaterThan, Value: "40"}, true},
		{"lessThan", schema.ConditionalRule{Field: "age", Operator: schema.OpLessThan, Value: 40}, false},
		{"greaterThan non numeric", schema.ConditionalRule{Field: "plan", Operator: schema.OpGreaterThan, Value: 1}, false},
		{"greaterThan empty", schema.ConditionalRule{Field: "blank", Operator: schema.OpGreaterThan, Value: -1}, false},
		{"unknown operator", schema.ConditionalRule{Field: "plan", Operator: "matches", Value: "pro"}, false},
	}

	for _, tc := range cases {
		if got := EvaluateRule(tc.rule, lookup); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEvaluateRules_Logic(t *testing.T) {
	t.Parallel()

	rules := []schema.ConditionalRule{
		{Field: "a", Operator: schema.OpEquals, Value: "x"},
		{Field: "b", Operator: schema.OpEquals, Value: "y"},
	}

	orCases := []struct {
		a, b string
		want bool
	}{
		{"x", "n", true},
		{"n", "y", true},
		{"n", "n", false},
	}
	for _, tc := range orCases {
		lookup := mapLookup(map[string]any{"a": tc.a, "b": tc.b})
		if got := EvaluateRules(rules, schema.LogicOr, lookup); got != tc.want {
			t.Fatalf("OR a=%s b=%s: got %v", tc.a, tc.b, got)
		}
	}

	lookup := mapLookup(map[string]any{"a": "x", "b": "n"})
	if EvaluateRules(rules, schema.LogicAnd, lookup) {
		t.Fatalf("AND should require all rules")
	}
	if EvaluateRules(rules, "", lookup) {
		t.Fatalf("empty logic should behave as AND")
	}
	if !EvaluateRules(nil, schema.LogicAnd, lookup) {
		t.Fatalf("empty rule set should be vacuously true")
	}
}

func TestScopedLookup(t *testing.T) {
	t.Parallel()

	base := mapLookup(map[string]any{
		"contacts[1].kind": "phone",
		"kind":             "email",
		"country":          "NZ",
	})
	scoped := Scoped(base, "contacts[1]")

	if v, _ := scoped("kind"); v != "phone" {
		t.Fatalf("expected instance value, got %v", v)
	}
	if v, _ := scoped("country"); v != "NZ" {
		t.Fatalf("expected fallback to page-level value, got %v", v)
	}
	if v, _ := Scoped(base, "")("kind"); v != "email" {
		t.Fatalf("unscoped lookup should hit page-level value, got %v", v)
	}
}

func TestResolverVisible(t *testing.T) {
	t.Parallel()

	var reported []error
	resolver := NewResolver(
		WithEvaluator(EvaluatorFunc(func(fieldPath, rule string, ctx Context) (bool, error) {
			if rule == "boom" {
				return false, errors.New("boom")
			}
			return ctx.Values["flag"] == true, nil
		})),
		WithErrorHandler(func(_ string, err error) { reported = append(reported, err) }),
	)

	lookup := mapLookup(map[string]any{"a": "x"})
	display := &schema.ConditionalDisplay{
		Rules:      []schema.ConditionalRule{{Field: "a", Operator: schema.OpEquals, Value: "x"}},
		Expression: "flag",
	}
	if !resolver.Visible("f", display, lookup, map[string]any{"flag": true}) {
		t.Fatalf("expected visible")
	}
	if resolver.Visible("f", display, lookup, map[string]any{"flag": false}) {
		t.Fatalf("expected hidden when expression is false")
	}
	if resolver.Visible("f", &schema.ConditionalDisplay{Expression: "boom"}, lookup, nil) {
		t.Fatalf("evaluation errors should hide the field")
	}
	if len(reported) != 1 {
		t.Fatalf("expected one reported error, got %d", len(reported))
	}
	if !resolver.Visible("f", nil, lookup, nil) {
		t.Fatalf("nil display is always visible")
	}

	bare := NewResolver()
	if bare.Visible("f", &schema.ConditionalDisplay{Expression: "x"}, lookup, nil) {
		t.Fatalf("expression without evaluator should hide the field")
	}
}
