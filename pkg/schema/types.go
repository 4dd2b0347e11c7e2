package schema

import "strings"

// FieldType enumerates the supported field kinds.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldTextarea   FieldType = "textarea"
	FieldEmail      FieldType = "email"
	FieldNumber     FieldType = "number"
	FieldTel        FieldType = "tel"
	FieldURL        FieldType = "url"
	FieldDate       FieldType = "date"
	FieldTime       FieldType = "time"
	FieldDatetime   FieldType = "datetime"
	FieldSelect     FieldType = "select"
	FieldRadio      FieldType = "radio"
	FieldCheckboxes FieldType = "checkboxes"
	FieldFile       FieldType = "file"
	FieldHidden     FieldType = "hidden"
	FieldRichtext   FieldType = "richtext"
	FieldHeader     FieldType = "header"
	FieldParagraph  FieldType = "paragraph"
)

// FieldTypes lists every known field type in declaration order.
var FieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldEmail, FieldNumber, FieldTel, FieldURL,
	FieldDate, FieldTime, FieldDatetime, FieldSelect, FieldRadio,
	FieldCheckboxes, FieldFile, FieldHidden, FieldRichtext, FieldHeader,
	FieldParagraph,
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsDisplayOnly reports whether fields of this type never hold a value.
func (t FieldType) IsDisplayOnly() bool {
	switch t {
	case FieldRichtext, FieldHeader, FieldParagraph:
		return true
	}
	return false
}

// IsInput is the inverse of IsDisplayOnly for known types.
func (t FieldType) IsInput() bool {
	return t.Valid() && !t.IsDisplayOnly()
}

// IsChoice reports whether the field renders a list of options.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldSelect, FieldRadio, FieldCheckboxes:
		return true
	}
	return false
}

// Operator names a comparison used by conditional and cross-field rules.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpAfter       Operator = "after"
	OpBefore      Operator = "before"
)

// Logic combines conditional rules.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Normalize returns LogicAnd for any value other than OR.
func (l Logic) Normalize() Logic {
	if strings.EqualFold(string(l), string(LogicOr)) {
		return LogicOr
	}
	return LogicAnd
}

// CalcFormat controls how calculated values are displayed.
type CalcFormat string

const (
	FormatNumber     CalcFormat = "number"
	FormatCurrency   CalcFormat = "currency"
	FormatPercentage CalcFormat = "percentage"
)

// SkipActionType enumerates skip rule effects.
type SkipActionType string

const (
	ActionSkipToPage   SkipActionType = "skipToPage"
	ActionEnableField  SkipActionType = "enableField"
	ActionDisableField SkipActionType = "disableField"
)

// LayoutWidth hints the column span of a field container.
type LayoutWidth string

const (
	WidthFull      LayoutWidth = "full"
	WidthHalf      LayoutWidth = "half"
	WidthThird     LayoutWidth = "third"
	WidthTwoThirds LayoutWidth = "twoThirds"
)

// FormSchema is the immutable description of a form. It is parsed once and
// never mutated by the runtime.
type FormSchema struct {
	FormID             string              `json:"formId" yaml:"formId" jsonschema:"required"`
	Version            string              `json:"version,omitempty" yaml:"version,omitempty"`
	Title              string              `json:"title,omitempty" yaml:"title,omitempty"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty"`
	Settings           Settings            `json:"settings,omitempty" yaml:"settings,omitempty"`
	Pages              []Page              `json:"pages" yaml:"pages" jsonschema:"required,minItems=1"`
	RepeatableSections []RepeatableSection `json:"repeatableSections,omitempty" yaml:"repeatableSections,omitempty"`
	CalculatedFields   []CalculatedField   `json:"calculatedFields,omitempty" yaml:"calculatedFields,omitempty"`
	ConditionalLogic   *ConditionalLogic   `json:"conditionalLogic,omitempty" yaml:"conditionalLogic,omitempty"`
}

// ConditionalLogic holds form-level rules that react to values.
type ConditionalLogic struct {
	SkipRules []SkipRule `json:"skipRules,omitempty" yaml:"skipRules,omitempty"`
}

// SkipRules returns the form's skip rules, if any.
func (s *FormSchema) SkipRules() []SkipRule {
	if s == nil || s.ConditionalLogic == nil {
		return nil
	}
	return s.ConditionalLogic.SkipRules
}

// Settings groups form-level presentation switches.
type Settings struct {
	MultiPage        bool              `json:"multiPage,omitempty" yaml:"multiPage,omitempty"`
	ProgressBar      bool              `json:"progressBar,omitempty" yaml:"progressBar,omitempty"`
	SaveProgress     bool              `json:"saveProgress,omitempty" yaml:"saveProgress,omitempty"`
	SubmitButtonText string            `json:"submitButtonText,omitempty" yaml:"submitButtonText,omitempty"`
	SuccessMessage   string            `json:"successMessage,omitempty" yaml:"successMessage,omitempty"`
	Theme            string            `json:"theme,omitempty" yaml:"theme,omitempty"`
	CustomStyles     map[string]string `json:"customStyles,omitempty" yaml:"customStyles,omitempty"`
}

// Page is an ordered group of fields shown together.
type Page struct {
	ID     string  `json:"id" yaml:"id" jsonschema:"required"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field describes a single input or display element.
type Field struct {
	ID                 string              `json:"id" yaml:"id" jsonschema:"required"`
	Type               FieldType           `json:"type" yaml:"type" jsonschema:"required"`
	Label              string              `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder        string              `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText           string              `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Required           bool                `json:"required,omitempty" yaml:"required,omitempty"`
	DefaultValue       any                 `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Validation         *Validation         `json:"validation,omitempty" yaml:"validation,omitempty"`
	Options            []Option            `json:"options,omitempty" yaml:"options,omitempty"`
	ConditionalDisplay *ConditionalDisplay `json:"conditionalDisplay,omitempty" yaml:"conditionalDisplay,omitempty"`
	Layout             *Layout             `json:"layout,omitempty" yaml:"layout,omitempty"`
	Level              int                 `json:"level,omitempty" yaml:"level,omitempty"`
}

// IsRequired folds the field-level flag and validation.required together.
func (f Field) IsRequired() bool {
	return f.Required || (f.Validation != nil && f.Validation.Required)
}

// DisplayLabel returns the label, falling back to the id.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.ID
}

// Option is a value/label pair for choice fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Validation holds the declarative constraints for a field.
type Validation struct {
	Required      bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Pattern       string      `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength     *int        `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength     *int        `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min           *float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64    `json:"max,omitempty" yaml:"max,omitempty"`
	MinDate       string      `json:"minDate,omitempty" yaml:"minDate,omitempty"`
	MaxDate       string      `json:"maxDate,omitempty" yaml:"maxDate,omitempty"`
	FileSizeLimit int64       `json:"fileSizeLimit,omitempty" yaml:"fileSizeLimit,omitempty"`
	FileTypes     []string    `json:"fileTypes,omitempty" yaml:"fileTypes,omitempty"`
	Message       string      `json:"message,omitempty" yaml:"message,omitempty"`
	CrossField    *CrossField `json:"crossField,omitempty" yaml:"crossField,omitempty"`
}

// CrossField compares a field against another field's value.
type CrossField struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
}

// ConditionalRule is a single predicate over another field's value.
type ConditionalRule struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// ConditionalDisplay controls field visibility. Expression is an optional
// boolean expression evaluated alongside the rules.
type ConditionalDisplay struct {
	Rules      []ConditionalRule `json:"rules,omitempty" yaml:"rules,omitempty"`
	Logic      Logic             `json:"logic,omitempty" yaml:"logic,omitempty"`
	Expression string            `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Layout carries presentation hints.
type Layout struct {
	Width LayoutWidth `json:"width,omitempty" yaml:"width,omitempty"`
	Order int         `json:"order,omitempty" yaml:"order,omitempty"`
}

// RepeatableSection is a field template instantiated between min and max
// times. A nil MinInstances means one instance; a nil or zero MaxInstances
// means unbounded.
type RepeatableSection struct {
	ID               string  `json:"id" yaml:"id" jsonschema:"required"`
	Title            string  `json:"title,omitempty" yaml:"title,omitempty"`
	AddButtonText    string  `json:"addButtonText,omitempty" yaml:"addButtonText,omitempty"`
	RemoveButtonText string  `json:"removeButtonText,omitempty" yaml:"removeButtonText,omitempty"`
	MinInstances     *int    `json:"minInstances,omitempty" yaml:"minInstances,omitempty"`
	MaxInstances     *int    `json:"maxInstances,omitempty" yaml:"maxInstances,omitempty"`
	Fields           []Field `json:"fields" yaml:"fields"`
}

// Min returns the effective minimum instance count.
func (s RepeatableSection) Min() int {
	if s.MinInstances == nil {
		return 1
	}
	if *s.MinInstances < 0 {
		return 0
	}
	return *s.MinInstances
}

// Max returns the effective maximum, or 0 when unbounded.
func (s RepeatableSection) Max() int {
	if s.MaxInstances == nil || *s.MaxInstances <= 0 {
		return 0
	}
	return *s.MaxInstances
}

// Field returns the template field with the given id.
func (s RepeatableSection) Field(id string) (Field, bool) {
	for _, field := range s.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}

// CalculatedField is a read-only numeric output derived from an expression.
type CalculatedField struct {
	ID            string     `json:"id" yaml:"id" jsonschema:"required"`
	Label         string     `json:"label,omitempty" yaml:"label,omitempty"`
	Expression    string     `json:"expression" yaml:"expression" jsonschema:"required"`
	Format        CalcFormat `json:"format,omitempty" yaml:"format,omitempty"`
	DecimalPlaces *int       `json:"decimalPlaces,omitempty" yaml:"decimalPlaces,omitempty"`
}

// Places returns the configured decimal places, defaulting to 2.
func (c CalculatedField) Places() int {
	if c.DecimalPlaces == nil || *c.DecimalPlaces < 0 {
		return 2
	}
	return *c.DecimalPlaces
}

// SkipRule triggers an action when its condition holds.
type SkipRule struct {
	Condition ConditionalRule `json:"condition" yaml:"condition"`
	Action    SkipAction      `json:"action" yaml:"action"`
}

// SkipAction is the effect of a SkipRule.
type SkipAction struct {
	Type   SkipActionType `json:"type" yaml:"type"`
	Target string         `json:"target" yaml:"target"`
}
