package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Parse decodes a JSON or YAML form schema, checks it against the generated
// JSON Schema and then runs the semantic checks in Validate.
func Parse(data []byte) (*FormSchema, error) {
	return ParseDocument(SourceInline(""), data)
}

// ParseDocument is Parse with an explicit origin used in error messages.
func ParseDocument(src Source, data []byte) (*FormSchema, error) {
	doc, err := NewDocument(src, data)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// Decode turns a Document into a validated FormSchema.
func Decode(doc Document) (*FormSchema, error) {
	issues, err := ValidateDocument(doc.raw)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, &SchemaError{Source: doc.Location(), Issues: issues}
	}

	var out FormSchema
	if err := json.Unmarshal(doc.raw, &out); err != nil {
		return nil, fmt.Errorf("schema: decode %s: %w", doc.Location(), err)
	}
	if err := out.Validate(); err != nil {
		if se, ok := err.(*SchemaError); ok {
			se.Source = doc.Location()
		}
		return nil, err
	}
	return &out, nil
}

// Load reads and parses a schema from fsys.
func Load(fsys fs.FS, path string) (*FormSchema, error) {
	if fsys == nil {
		return nil, fmt.Errorf("schema: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return ParseDocument(SourceFromFS(path), data)
}

// LoadFile reads and parses a schema from disk.
func LoadFile(path string) (*FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return ParseDocument(SourceFromFile(path), data)
}

// Validate performs the structural checks the runtime relies on. It reports
// every problem found rather than stopping at the first.
func (s *FormSchema) Validate() error {
	if s == nil {
		return ErrNilSchema
	}
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(s.Pages) == 0 {
		add("pages", "at least one page is required")
	}

	pageIDs := make(map[string]struct{}, len(s.Pages))
	topLevel := make(map[string]struct{})
	for pi, page := range s.Pages {
		path := fmt.Sprintf("pages/%d", pi)
		if strings.TrimSpace(page.ID) == "" {
			add(path, "page id is required")
		} else if _, dup := pageIDs[page.ID]; dup {
			add(path, "duplicate page id %q", page.ID)
		} else {
			pageIDs[page.ID] = struct{}{}
		}
		for fi, field := range page.Fields {
			checkField(field, fmt.Sprintf("%s/fields/%d", path, fi), topLevel, add)
		}
	}

	sectionIDs := make(map[string]struct{}, len(s.RepeatableSections))
	for si, section := range s.RepeatableSections {
		path := fmt.Sprintf("repeatableSections/%d", si)
		switch {
		case strings.TrimSpace(section.ID) == "":
			add(path, "section id is required")
		case strings.ContainsAny(section.ID, "[]."):
			add(path, "section id %q must not contain '[', ']' or '.'", section.ID)
		default:
			if _, dup := sectionIDs[section.ID]; dup {
				add(path, "duplicate section id %q", section.ID)
			}
			if _, clash := topLevel[section.ID]; clash {
				add(path, "section id %q collides with a field id", section.ID)
			}
			sectionIDs[section.ID] = struct{}{}
		}
		if section.MinInstances != nil && *section.MinInstances < 0 {
			add(path+"/minInstances", "must not be negative")
		}
		if upper := section.Max(); upper > 0 && upper < section.Min() {
			add(path+"/maxInstances", "maxInstances %d is below minInstances %d", upper, section.Min())
		}
		scoped := make(map[string]struct{}, len(section.Fields))
		for fi, field := range section.Fields {
			checkField(field, fmt.Sprintf("%s/fields/%d", path, fi), scoped, add)
		}
	}

	calcIDs := make(map[string]struct{}, len(s.CalculatedFields))
	for ci, calc := range s.CalculatedFields {
		path := fmt.Sprintf("calculatedFields/%d", ci)
		if strings.TrimSpace(calc.ID) == "" {
			add(path, "calculated field id is required")
		} else if _, dup := calcIDs[calc.ID]; dup {
			add(path, "duplicate calculated field id %q", calc.ID)
		} else {
			calcIDs[calc.ID] = struct{}{}
		}
		if strings.TrimSpace(calc.Expression) == "" {
			add(path, "expression is required")
		}
		switch calc.Format {
		case "", FormatNumber, FormatCurrency, FormatPercentage:
		default:
			add(path, "unknown format %q", calc.Format)
		}
	}

	for ri, rule := range s.SkipRules() {
		path := fmt.Sprintf("conditionalLogic/skipRules/%d", ri)
		if strings.TrimSpace(rule.Condition.Field) == "" {
			add(path+"/condition", "field is required")
		}
		switch rule.Action.Type {
		case ActionSkipToPage:
			if _, ok := pageIDs[rule.Action.Target]; !ok {
				add(path+"/action", "unknown page %q", rule.Action.Target)
			}
		case ActionEnableField, ActionDisableField:
			if _, ok := topLevel[rule.Action.Target]; !ok {
				add(path+"/action", "unknown field %q", rule.Action.Target)
			}
		default:
			add(path+"/action", "unknown action type %q", rule.Action.Type)
		}
	}

	if len(issues) > 0 {
		return &SchemaError{Issues: issues}
	}
	return nil
}

func checkField(field Field, path string, seen map[string]struct{}, add func(string, string, ...any)) {
	switch {
	case strings.TrimSpace(field.ID) == "":
		add(path, "field id is required")
	case strings.ContainsAny(field.ID, "[]"):
		add(path, "field id %q must not contain brackets", field.ID)
	default:
		if _, dup := seen[field.ID]; dup {
			add(path, "duplicate field id %q", field.ID)
		}
		seen[field.ID] = struct{}{}
	}
	if !field.Type.Valid() {
		add(path+"/type", "unknown field type %q", field.Type)
	}
	if field.Type == FieldHeader && (field.Level < 0 || field.Level > 6) {
		add(path+"/level", "heading level must be between 1 and 6")
	}
	if field.Validation == nil {
		return
	}
	if field.Validation.Pattern != "" {
		if _, err := regexp.Compile(field.Validation.Pattern); err != nil {
			add(path+"/validation/pattern", "invalid pattern: %v", err)
		}
	}
	v := field.Validation
	if v.MinLength != nil && v.MaxLength != nil && *v.MaxLength < *v.MinLength {
		add(path+"/validation", "maxLength is below minLength")
	}
	if v.Min != nil && v.Max != nil && *v.Max < *v.Min {
		add(path+"/validation", "max is below min")
	}
}

// Section returns the repeatable section with the given id.
func (s *FormSchema) Section(id string) (RepeatableSection, bool) {
	if s == nil {
		return RepeatableSection{}, false
	}
	for _, section := range s.RepeatableSections {
		if section.ID == id {
			return section, true
		}
	}
	return RepeatableSection{}, false
}

// PageIndex returns the position of the page with the given id, or -1.
func (s *FormSchema) PageIndex(id string) int {
	if s == nil {
		return -1
	}
	for i, page := range s.Pages {
		if page.ID == id {
			return i
		}
	}
	return -1
}

// Field looks up a page-level field by id.
func (s *FormSchema) Field(id string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, page := range s.Pages {
		for _, field := range page.Fields {
			if field.ID == id {
				return field, true
			}
		}
	}
	return Field{}, false
}

// InputFields returns every page-level field that holds a value, in page
// order.
func (s *FormSchema) InputFields() []Field {
	if s == nil {
		return nil
	}
	var out []Field
	for _, page := range s.Pages {
		for _, field := range page.Fields {
			if field.Type.IsInput() {
				out = append(out, field)
			}
		}
	}
	return out
}

// Clone returns a deep copy through a JSON round trip so callers can derive
// variants without touching the original.
func (s *FormSchema) Clone() (*FormSchema, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("schema: clone: %w", err)
	}
	var out FormSchema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("schema: clone: %w", err)
	}
	return &out, nil
}
