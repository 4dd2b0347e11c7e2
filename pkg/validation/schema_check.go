package validation

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

// SchemaIssue represents a schema problem with optional location metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of checking a form schema
// document, e.g. for builder previews or the CLI.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// ValidateSchemaDocument parses raw (JSON or YAML) and reports every problem
// found instead of failing on the first.
func ValidateSchemaDocument(src schema.Source, raw []byte) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}
	if src == nil {
		src = schema.SourceInline("")
	}
	doc, err := schema.NewDocument(src, raw)
	if err != nil {
		return invalid(issueFromError(err))
	}
	if _, err := schema.Decode(doc); err != nil {
		var schemaErr *schema.SchemaError
		if errors.As(err, &schemaErr) {
			result.Valid = false
			for _, issue := range schemaErr.Issues {
				result.Issues = append(result.Issues, SchemaIssue{
					Path:    issue.Path,
					Field:   fieldPathFromPointer(issue.Path),
					Message: strings.TrimSpace(issue.Message),
				})
			}
			return result
		}
		return invalid(issueFromError(err))
	}
	return result
}

func invalid(issue SchemaIssue) SchemaValidationResult {
	return SchemaValidationResult{Valid: false, Issues: []SchemaIssue{issue}}
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "schema: ")
	return SchemaIssue{Message: msg}
}

// fieldPathFromPointer turns an instance location such as
// "pages/0/fields/2/validation" into a dotted path "pages.0.fields.2.validation".
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.ReplaceAll(part, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if segment == "" {
			continue
		}
		out = append(out, segment)
	}
	return strings.Join(out, ".")
}
