package visibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

// Lookup resolves a field id to its current value.
type Lookup func(id string) (any, bool)

// Scoped returns a lookup that resolves names against the given repeatable
// instance prefix (e.g. "contacts[1]") before falling back to base.
func Scoped(base Lookup, scope string) Lookup {
	if base == nil {
		return func(string) (any, bool) { return nil, false }
	}
	if scope == "" {
		return base
	}
	return func(id string) (any, bool) {
		if v, ok := base(scope + "." + id); ok {
			return v, true
		}
		return base(id)
	}
}

// EvaluateRule applies a single conditional rule. Unknown operators and
// numeric comparisons against non-numbers evaluate to false.
func EvaluateRule(rule schema.ConditionalRule, lookup Lookup) bool {
	var current any
	if lookup != nil {
		current, _ = lookup(rule.Field)
	}
	left := Stringify(current)
	right := Stringify(rule.Value)

	switch rule.Operator {
	case schema.OpEquals:
		return left == right
	case schema.OpNotEquals:
		return left != right
	case schema.OpContains:
		return strings.Contains(left, right)
	case schema.OpNotContains:
		return !strings.Contains(left, right)
	case schema.OpGreaterThan, schema.OpLessThan:
		l, errL := strconv.ParseFloat(strings.TrimSpace(left), 64)
		r, errR := strconv.ParseFloat(strings.TrimSpace(right), 64)
		if errL != nil || errR != nil {
			return false
		}
		if rule.Operator == schema.OpGreaterThan {
			return l > r
		}
		return l < r
	default:
		return false
	}
}

// EvaluateRules combines rules with AND or OR. An empty rule set is true.
func EvaluateRules(rules []schema.ConditionalRule, logic schema.Logic, lookup Lookup) bool {
	if len(rules) == 0 {
		return true
	}
	if logic.Normalize() == schema.LogicOr {
		for _, rule := range rules {
			if EvaluateRule(rule, lookup) {
				return true
			}
		}
		return false
	}
	for _, rule := range rules {
		if !EvaluateRule(rule, lookup) {
			return false
		}
	}
	return true
}

// Stringify converts a field or rule value into the string form used by rule
// comparisons. Lists are joined with commas.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
