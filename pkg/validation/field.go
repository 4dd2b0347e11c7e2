// Package validation applies the declarative field constraints of a form
// schema to current values.
package validation

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/visibility"
)

// FieldError is a per-field validation failure. It is surfaced inline next to
// the field and never returned as a Go error from the runtime's event methods.
type FieldError struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.FieldID, e.Message)
}

// Lookup resolves another field's value for cross-field checks.
type Lookup = visibility.Lookup

var patternCache sync.Map

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// ValidateField checks value against field's constraints in a fixed order:
// required, pattern, length, numeric bounds, date bounds, file constraints and
// cross-field comparison. It stops at the first failure. Display-only fields
// are always valid and an empty optional value skips every other check.
func ValidateField(id string, field schema.Field, value any, lookup Lookup) *FieldError {
	if field.Type.IsDisplayOnly() {
		return nil
	}
	rules := field.Validation
	if rules == nil {
		rules = &schema.Validation{}
	}
	fail := func(fallback string) *FieldError {
		msg := fallback
		if rules.Message != "" {
			msg = rules.Message
		}
		return &FieldError{FieldID: id, Message: msg}
	}

	if store.IsEmpty(value) {
		if field.IsRequired() {
			return fail(fmt.Sprintf("%s is required", field.DisplayLabel()))
		}
		return nil
	}

	text, isText := value.(string)

	if rules.Pattern != "" && isText {
		re, err := compilePattern(rules.Pattern)
		if err != nil || !re.MatchString(text) {
			return fail("Invalid format")
		}
	}

	if isText {
		length := utf8.RuneCountInString(text)
		if rules.MinLength != nil && *rules.MinLength > 0 && length < *rules.MinLength {
			return fail(fmt.Sprintf("Minimum length is %d", *rules.MinLength))
		}
		if rules.MaxLength != nil && *rules.MaxLength > 0 && length > *rules.MaxLength {
			return fail(fmt.Sprintf("Maximum length is %d", *rules.MaxLength))
		}
	}

	if field.Type == schema.FieldNumber {
		if num, ok := numeric(value); ok {
			if rules.Min != nil && num < *rules.Min {
				return fail(fmt.Sprintf("Minimum value is %s", formatNumber(*rules.Min)))
			}
			if rules.Max != nil && num > *rules.Max {
				return fail(fmt.Sprintf("Maximum value is %s", formatNumber(*rules.Max)))
			}
		}
	}

	if isText && (field.Type == schema.FieldDate || field.Type == schema.FieldDatetime) {
		if when, ok := ParseDate(text); ok {
			if lower, ok := ParseDate(rules.MinDate); ok && when.Before(lower) {
				return fail(fmt.Sprintf("Date must be on or after %s", rules.MinDate))
			}
			if upper, ok := ParseDate(rules.MaxDate); ok && when.After(upper) {
				return fail(fmt.Sprintf("Date must be on or before %s", rules.MaxDate))
			}
		}
	}

	if field.Type == schema.FieldFile {
		if file, ok := asFile(value); ok {
			if rules.FileSizeLimit > 0 && file.Size > rules.FileSizeLimit {
				return fail("File size exceeds limit")
			}
			if len(rules.FileTypes) > 0 && !fileTypeAllowed(file, rules.FileTypes) {
				return fail("File type not allowed")
			}
		}
	}

	if cf := rules.CrossField; cf != nil && cf.Field != "" && lookup != nil {
		other, _ := lookup(cf.Field)
		if !store.IsEmpty(other) && !compare(value, other, cf.Operator) {
			return fail("Validation failed")
		}
	}

	return nil
}

func compare(value, other any, op schema.Operator) bool {
	switch op {
	case schema.OpEquals:
		return visibility.Stringify(value) == visibility.Stringify(other)
	case schema.OpNotEquals:
		return visibility.Stringify(value) != visibility.Stringify(other)
	case schema.OpAfter, schema.OpBefore:
		a, okA := ParseDate(visibility.Stringify(value))
		b, okB := ParseDate(visibility.Stringify(other))
		if !okA || !okB {
			return false
		}
		if op == schema.OpAfter {
			return a.After(b)
		}
		return a.Before(b)
	case schema.OpGreaterThan, schema.OpLessThan:
		a, okA := numeric(value)
		b, okB := numeric(other)
		if !okA || !okB {
			return false
		}
		if op == schema.OpGreaterThan {
			return a > b
		}
		return a < b
	default:
		return true
	}
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"15:04",
}

// ParseDate accepts the formats produced by date, datetime and time inputs.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asFile(value any) (store.File, bool) {
	switch v := value.(type) {
	case store.File:
		return v, true
	case *store.File:
		if v != nil {
			return *v, true
		}
	}
	return store.File{}, false
}

func fileTypeAllowed(file store.File, allowed []string) bool {
	kind := file.ContentType
	if kind == "" {
		kind = strings.TrimPrefix(path.Ext(file.Name), ".")
	}
	kind = strings.ToLower(kind)
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if strings.Contains(kind, candidate) || strings.HasSuffix(kind, strings.TrimPrefix(candidate, ".")) {
			return true
		}
	}
	return false
}
