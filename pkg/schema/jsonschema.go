package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaID = "https://github.com/goliatone/go-formruntime/schemas/form-schema.json"

// JSONSchema describes FieldType as a closed enum.
func (FieldType) JSONSchema() *jsonschema.Schema {
	values := make([]any, 0, len(FieldTypes))
	for _, t := range FieldTypes {
		values = append(values, string(t))
	}
	return &jsonschema.Schema{Type: "string", Enum: values}
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document describing
// FormSchema documents.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.AllowAdditionalProperties = true

	s := r.Reflect(&FormSchema{})
	s.ID = documentSchemaID
	s.Title = "Form schema"
	s.Description = "Declarative form description consumed by the form runtime (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal json schema: %w", err)
	}
	return data, nil
}

var (
	compiledOnce sync.Once
	compiled     *sjsonschema.Schema
	compileErr   error
)

func documentSchema() (*sjsonschema.Schema, error) {
	compiledOnce.Do(func() {
		raw, err := GenerateJSONSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("schema: unmarshal json schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource("form-schema.json", doc); err != nil {
			compileErr = fmt.Errorf("schema: add json schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("form-schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("schema: compile json schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateDocument checks a JSON payload against the generated JSON Schema.
// An empty slice means the document is structurally sound.
func ValidateDocument(raw []byte) ([]Issue, error) {
	sch, err := documentSchema()
	if err != nil {
		return nil, err
	}
	inst, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return []Issue{{Message: fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}

	if err := sch.Validate(inst); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return []Issue{{Message: err.Error()}}, nil
		}
		var issues []Issue
		for _, cause := range flattenValidationErrors(ve) {
			issues = append(issues, Issue{
				Path:    strings.Join(cause.InstanceLocation, "/"),
				Message: fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
		return issues, nil
	}
	return nil, nil
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
