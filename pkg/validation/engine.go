package validation

import "github.com/goliatone/go-formruntime/pkg/schema"

// Target is one field instance to validate. Lookup resolves cross-field
// references in the target's scope.
type Target struct {
	ID     string
	Field  schema.Field
	Value  any
	Lookup Lookup
}

// Result is the outcome of validating a set of targets. Errors preserve the
// order of the targets.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// ErrorFor returns the error recorded for id.
func (r Result) ErrorFor(id string) (FieldError, bool) {
	for _, err := range r.Errors {
		if err.FieldID == id {
			return err, true
		}
	}
	return FieldError{}, false
}

// Validate runs ValidateField over every target.
func Validate(targets []Target) Result {
	result := Result{Valid: true}
	for _, target := range targets {
		if err := ValidateField(target.ID, target.Field, target.Value, target.Lookup); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, *err)
		}
	}
	return result
}
