package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilSchema is returned when an operation receives no schema.
var ErrNilSchema = errors.New("schema: schema is required")

// Issue describes a single structural problem with a form schema.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// SchemaError aggregates every structural issue found while loading or
// validating a schema. It is fatal at load time.
type SchemaError struct {
	Source string
	Issues []Issue
}

func (e *SchemaError) Error() string {
	if e == nil {
		return "schema: invalid schema"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	prefix := "schema: invalid schema"
	if e.Source != "" {
		prefix = fmt.Sprintf("schema: invalid schema %s", e.Source)
	}
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// IsSchemaError reports whether err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}
