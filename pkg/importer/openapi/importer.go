// Package openapi derives form schemas from OpenAPI 3 request bodies.
//
// Object properties become page fields and arrays of objects become
// repeatable sections bounded by minItems and maxItems. Properties are
// emitted in the order given by the x-form-order extension, then
// alphabetically.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

const (
	// ExtensionFieldType overrides the inferred field type of a property.
	ExtensionFieldType = "x-form-type"
	// ExtensionOrder lists property names in display order.
	ExtensionOrder = "x-form-order"

	textareaThreshold = 255
)

var (
	// ErrNoOperation reports a document without a usable request body.
	ErrNoOperation = errors.New("openapi: no operation with a request body")
	// ErrOperationNotFound reports an unknown operation id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNotObject reports a request body that is not an object schema.
	ErrNotObject = errors.New("openapi: request body is not an object")
)

var methodOrder = []string{"POST", "PUT", "PATCH", "GET", "DELETE", "HEAD", "OPTIONS", "TRACE"}

var mediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

type options struct {
	operation    string
	externalRefs bool
	validate     bool
	logger       *zap.Logger
}

// Option customises an import.
type Option func(*options)

// WithOperation selects the operation by operationId. Without it the first
// operation with a request body is used, ordered by path then method.
func WithOperation(id string) Option {
	return func(o *options) {
		o.operation = strings.TrimSpace(id)
	}
}

// WithExternalRefs allows $ref values that point outside the document.
func WithExternalRefs(allow bool) Option {
	return func(o *options) {
		o.externalRefs = allow
	}
}

// WithDocumentValidation validates the OpenAPI document before import.
func WithDocumentValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithLogger reports skipped properties.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Import parses an OpenAPI document (JSON or YAML) and builds a validated
// form schema from one operation's request body.
func Import(ctx context.Context, data []byte, opts ...Option) (*schema.FormSchema, error) {
	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document is empty")
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: cfg.externalRefs}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	op, err := findOperation(doc, cfg.operation)
	if err != nil {
		return nil, err
	}
	body := requestSchema(op.operation)
	if body == nil || !isType(body, openapi3.TypeObject) {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, op.id)
	}

	b := builder{logger: cfg.logger.With(zap.String("operation", op.id))}
	form := &schema.FormSchema{
		FormID:      op.id,
		Title:       firstNonEmpty(op.operation.Summary, body.Title, infoTitle(doc)),
		Description: firstNonEmpty(op.operation.Description, body.Description),
	}
	page := schema.Page{ID: "main"}
	for _, name := range propertyNames(body) {
		prop := body.Properties[name].Value
		if prop == nil {
			continue
		}
		required := contains(body.Required, name)
		if section, ok := b.section(name, prop); ok {
			form.RepeatableSections = append(form.RepeatableSections, section)
			continue
		}
		if field, ok := b.field(name, prop, required); ok {
			page.Fields = append(page.Fields, field)
		}
	}
	if len(page.Fields) == 0 && len(form.RepeatableSections) > 0 {
		page.Fields = append(page.Fields, schema.Field{ID: "intro", Type: schema.FieldHeader, Label: form.Title})
	}
	form.Pages = []schema.Page{page}

	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}
	return form, nil
}

type operationRef struct {
	id        string
	operation *openapi3.Operation
}

func findOperation(doc *openapi3.T, want string) (operationRef, error) {
	if doc.Paths == nil {
		return operationRef{}, ErrNoOperation
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, method := range methodOrder {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			switch {
			case want != "" && id == want:
				return operationRef{id: id, operation: op}, nil
			case want == "" && requestSchema(op) != nil:
				return operationRef{id: id, operation: op}, nil
			}
		}
	}
	if want != "" {
		return operationRef{}, fmt.Errorf("%w: %s", ErrOperationNotFound, want)
	}
	return operationRef{}, ErrNoOperation
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range mediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mediaType := range sortedKeys(content) {
		if mt := content[mediaType]; mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type builder struct {
	logger *zap.Logger
}

// section converts an array of objects into a repeatable section.
func (b builder) section(name string, prop *openapi3.Schema) (schema.RepeatableSection, bool) {
	if !isType(prop, openapi3.TypeArray) || prop.Items == nil || prop.Items.Value == nil {
		return schema.RepeatableSection{}, false
	}
	item := prop.Items.Value
	if !isType(item, openapi3.TypeObject) {
		return schema.RepeatableSection{}, false
	}

	lower := int(prop.MinItems)
	section := schema.RepeatableSection{
		ID:           name,
		Title:        firstNonEmpty(prop.Title, item.Title, humanize(name)),
		MinInstances: &lower,
	}
	if prop.MaxItems != nil {
		upper := int(*prop.MaxItems)
		section.MaxInstances = &upper
	}
	for _, child := range propertyNames(item) {
		value := item.Properties[child].Value
		if value == nil {
			continue
		}
		if isType(value, openapi3.TypeArray) && value.Items != nil && value.Items.Value != nil && isType(value.Items.Value, openapi3.TypeObject) {
			b.logger.Debug("nested repeatable skipped", zap.String("property", name+"."+child))
			continue
		}
		if field, ok := b.field(child, value, contains(item.Required, child)); ok {
			section.Fields = append(section.Fields, field)
		}
	}
	if len(section.Fields) == 0 {
		b.logger.Debug("empty repeatable skipped", zap.String("property", name))
		return schema.RepeatableSection{}, false
	}
	return section, true
}

// field maps a scalar or choice-list property onto a form field.
func (b builder) field(name string, prop *openapi3.Schema, required bool) (schema.Field, bool) {
	field := schema.Field{
		ID:           name,
		Label:        firstNonEmpty(prop.Title, humanize(name)),
		HelpText:     prop.Description,
		Required:     required,
		DefaultValue: prop.Default,
	}
	if prop.ReadOnly {
		b.logger.Debug("read-only property skipped", zap.String("property", name))
		return schema.Field{}, false
	}

	switch {
	case isType(prop, openapi3.TypeString):
		field.Type = stringType(prop)
	case isType(prop, openapi3.TypeInteger), isType(prop, openapi3.TypeNumber):
		field.Type = schema.FieldNumber
	case isType(prop, openapi3.TypeBoolean):
		field.Type = schema.FieldRadio
		field.Options = []schema.Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}
		if v, ok := prop.Default.(bool); ok {
			field.DefaultValue = fmt.Sprint(v)
		}
	case isType(prop, openapi3.TypeArray) && prop.Items != nil && prop.Items.Value != nil && len(prop.Items.Value.Enum) > 0:
		field.Type = schema.FieldCheckboxes
		field.Options = enumOptions(prop.Items.Value.Enum)
	default:
		b.logger.Debug("unsupported property skipped", zap.String("property", name), zap.Strings("type", typeSlice(prop)))
		return schema.Field{}, false
	}

	if len(prop.Enum) > 0 && field.Type != schema.FieldRadio {
		field.Type = schema.FieldSelect
		field.Options = enumOptions(prop.Enum)
	}
	if override, ok := prop.Extensions[ExtensionFieldType].(string); ok {
		if t := schema.FieldType(override); t.Valid() {
			field.Type = t
		}
	}
	field.Validation = constraints(prop)
	return field, true
}

func stringType(prop *openapi3.Schema) schema.FieldType {
	switch strings.ToLower(prop.Format) {
	case "email":
		return schema.FieldEmail
	case "date":
		return schema.FieldDate
	case "date-time":
		return schema.FieldDatetime
	case "time":
		return schema.FieldTime
	case "uri", "url":
		return schema.FieldURL
	case "binary":
		return schema.FieldFile
	case "phone", "tel":
		return schema.FieldTel
	}
	if prop.MaxLength != nil && *prop.MaxLength > textareaThreshold {
		return schema.FieldTextarea
	}
	return schema.FieldText
}

func constraints(prop *openapi3.Schema) *schema.Validation {
	v := &schema.Validation{Pattern: prop.Pattern, Min: prop.Min, Max: prop.Max}
	if prop.MinLength > 0 {
		n := int(prop.MinLength)
		v.MinLength = &n
	}
	if prop.MaxLength != nil {
		n := int(*prop.MaxLength)
		v.MaxLength = &n
	}
	if v.Pattern == "" && v.Min == nil && v.Max == nil && v.MinLength == nil && v.MaxLength == nil {
		return nil
	}
	return v
}

func enumOptions(values []any) []schema.Option {
	out := make([]schema.Option, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		s := fmt.Sprint(v)
		out = append(out, schema.Option{Value: s, Label: humanize(s)})
	}
	return out
}

// propertyNames orders properties by x-form-order, then alphabetically.
func propertyNames(s *openapi3.Schema) []string {
	names := sortedKeys(s.Properties)
	raw, ok := s.Extensions[ExtensionOrder].([]any)
	if !ok {
		return names
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, entry := range raw {
		name, ok := entry.(string)
		if !ok || seen[name] {
			continue
		}
		if _, exists := s.Properties[name]; exists {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range names {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// humanize turns snake_case or camelCase identifiers into a sentence-case
// label.
func humanize(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	if len(words) == 0 {
		return name
	}
	label := strings.Join(words, " ")
	first := []rune(label)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}

func isType(s *openapi3.Schema, want string) bool {
	return s != nil && s.Type != nil && s.Type.Includes(want)
}

func typeSlice(s *openapi3.Schema) []string {
	if s == nil || s.Type == nil {
		return nil
	}
	return s.Type.Slice()
}

func infoTitle(doc *openapi3.T) string {
	if doc.Info == nil {
		return ""
	}
	return doc.Info.Title
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
