package render

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/dom"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/visibility"
)

func defaultControls() map[schema.FieldType]ControlFunc {
	return map[schema.FieldType]ControlFunc{
		schema.FieldText:       inputControl("text"),
		schema.FieldEmail:      inputControl("email"),
		schema.FieldNumber:     inputControl("number"),
		schema.FieldTel:        inputControl("tel"),
		schema.FieldURL:        inputControl("url"),
		schema.FieldDate:       inputControl("date"),
		schema.FieldTime:       inputControl("time"),
		schema.FieldDatetime:   inputControl("datetime-local"),
		schema.FieldFile:       inputControl("file"),
		schema.FieldHidden:     hiddenControl,
		schema.FieldTextarea:   textareaControl,
		schema.FieldSelect:     selectControl,
		schema.FieldRadio:      choiceGroupControl("radio"),
		schema.FieldCheckboxes: choiceGroupControl("checkbox"),
		schema.FieldRichtext:   richtextControl,
		schema.FieldHeader:     headerControl,
		schema.FieldParagraph:  paragraphControl,
	}
}

func applyCommon(n *html.Node, ctl Control) {
	field := ctl.Field
	if field.IsRequired() {
		dom.SetAttr(n, "required", "")
		dom.SetAttr(n, "aria-required", "true")
	}
	if ctl.DescribedBy != "" {
		dom.SetAttr(n, "aria-describedby", ctl.DescribedBy)
	}
	if field.Placeholder != "" {
		dom.SetAttr(n, "placeholder", field.Placeholder)
	}
	v := field.Validation
	if v == nil {
		return
	}
	if v.Pattern != "" {
		dom.SetAttr(n, "pattern", v.Pattern)
	}
	if v.MinLength != nil {
		dom.SetAttr(n, "minlength", strconv.Itoa(*v.MinLength))
	}
	if v.MaxLength != nil {
		dom.SetAttr(n, "maxlength", strconv.Itoa(*v.MaxLength))
	}
	if field.Type == schema.FieldNumber {
		if v.Min != nil {
			dom.SetAttr(n, "min", strconv.FormatFloat(*v.Min, 'f', -1, 64))
		}
		if v.Max != nil {
			dom.SetAttr(n, "max", strconv.FormatFloat(*v.Max, 'f', -1, 64))
		}
	}
	if field.Type == schema.FieldDate || field.Type == schema.FieldDatetime {
		if v.MinDate != "" {
			dom.SetAttr(n, "min", v.MinDate)
		}
		if v.MaxDate != "" {
			dom.SetAttr(n, "max", v.MaxDate)
		}
	}
	if field.Type == schema.FieldFile && len(v.FileTypes) > 0 {
		dom.SetAttr(n, "accept", strings.Join(v.FileTypes, ","))
	}
}

func inputControl(inputType string) ControlFunc {
	return func(ctl Control) (*html.Node, *html.Node) {
		input := dom.Element("input",
			"type", inputType,
			"id", ctl.ID,
			"name", ctl.ID,
			"class", "form-input",
		)
		applyCommon(input, ctl)
		ApplyValue(ctl.Field.Type, input, ctl.Value)
		return input, input
	}
}

func hiddenControl(ctl Control) (*html.Node, *html.Node) {
	input := dom.Element("input", "type", "hidden", "id", ctl.ID, "name", ctl.ID)
	ApplyValue(ctl.Field.Type, input, ctl.Value)
	return input, input
}

func textareaControl(ctl Control) (*html.Node, *html.Node) {
	area := dom.Element("textarea", "id", ctl.ID, "name", ctl.ID, "class", "form-textarea", "rows", "4")
	applyCommon(area, ctl)
	ApplyValue(ctl.Field.Type, area, ctl.Value)
	return area, area
}

func selectControl(ctl Control) (*html.Node, *html.Node) {
	sel := dom.Element("select", "id", ctl.ID, "name", ctl.ID, "class", "form-select")
	applyCommon(sel, ctl)
	dom.RemoveAttr(sel, "placeholder")
	prompt := ctl.Field.Placeholder
	if prompt == "" {
		prompt = "Select..."
	}
	dom.Append(sel, dom.Append(dom.Element("option", "value", ""), dom.Text(prompt)))
	for _, opt := range ctl.Field.Options {
		dom.Append(sel, dom.Append(dom.Element("option", "value", opt.Value), dom.Text(optionLabel(opt))))
	}
	ApplyValue(ctl.Field.Type, sel, ctl.Value)
	return sel, sel
}

func choiceGroupControl(inputType string) ControlFunc {
	return func(ctl Control) (*html.Node, *html.Node) {
		field := ctl.Field
		set := dom.Element("fieldset",
			"id", "fieldset-"+ctl.ID,
			"class", "form-fieldset",
			"data-field-input", ctl.ID,
		)
		if inputType == "radio" {
			dom.SetAttr(set, "role", "radiogroup")
		}
		if ctl.DescribedBy != "" {
			dom.SetAttr(set, "aria-describedby", ctl.DescribedBy)
		}
		if field.IsRequired() {
			dom.SetAttr(set, "aria-required", "true")
		}
		legend := dom.Append(dom.Element("legend", "class", "form-label"), dom.Text(field.DisplayLabel()))
		if field.IsRequired() {
			dom.Append(legend, requiredMarker())
		}
		dom.Append(set, legend)

		for i, opt := range field.Options {
			optID := fmt.Sprintf("%s-%d", ctl.ID, i)
			input := dom.Element("input",
				"type", inputType,
				"id", optID,
				"name", ctl.ID,
				"value", opt.Value,
				"class", "form-"+inputType,
			)
			label := dom.Append(dom.Element("label", "for", optID, "class", "form-option-label"), dom.Text(optionLabel(opt)))
			dom.Append(set, dom.Append(dom.Element("div", "class", "form-option"), input, label))
		}
		ApplyValue(field.Type, set, ctl.Value)
		return set, set
	}
}

func richtextControl(ctl Control) (*html.Node, *html.Node) {
	block := dom.Element("div", "class", "form-richtext", "id", ctl.ID)
	markup := visibility.Stringify(ctl.Field.DefaultValue)
	if ctl.Sanitize != nil {
		markup = ctl.Sanitize(markup)
	}
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		dom.SetText(block, markup)
		return block, nil
	}
	dom.Append(block, nodes...)
	return block, nil
}

func headerControl(ctl Control) (*html.Node, *html.Node) {
	level := ctl.Field.Level
	if level < 1 || level > 6 {
		level = 2
	}
	h := dom.Element(fmt.Sprintf("h%d", level), "class", "form-header", "id", ctl.ID)
	dom.SetText(h, ctl.Field.Label)
	return h, nil
}

func paragraphControl(ctl Control) (*html.Node, *html.Node) {
	p := dom.Element("p", "class", "form-paragraph", "id", ctl.ID)
	text := ctl.Field.Label
	if text == "" {
		text = visibility.Stringify(ctl.Field.DefaultValue)
	}
	dom.SetText(p, text)
	return p, nil
}

func optionLabel(opt schema.Option) string {
	if opt.Label != "" {
		return opt.Label
	}
	return opt.Value
}

func requiredMarker() *html.Node {
	return dom.Append(dom.Element("span", "class", "form-required", "aria-label", "required"), dom.Text(" *"))
}

// ApplyValue reflects value onto a bound element: the value attribute for
// inputs, text content for textareas, selected options for selects and
// checked inputs for choice groups.
func ApplyValue(fieldType schema.FieldType, n *html.Node, value any) {
	if n == nil {
		return
	}
	switch fieldType {
	case schema.FieldTextarea:
		dom.SetText(n, visibility.Stringify(value))
	case schema.FieldSelect:
		selected := visibility.Stringify(value)
		for _, opt := range dom.ByTag(n, "option") {
			v, _ := dom.Attr(opt, "value")
			dom.ToggleAttr(opt, "selected", "", selected != "" && v == selected)
		}
	case schema.FieldRadio, schema.FieldCheckboxes:
		chosen := make(map[string]struct{})
		switch v := value.(type) {
		case []string:
			for _, s := range v {
				chosen[s] = struct{}{}
			}
		case nil:
		default:
			if s := visibility.Stringify(v); s != "" {
				chosen[s] = struct{}{}
			}
		}
		for _, input := range dom.ByTag(n, "input") {
			v, _ := dom.Attr(input, "value")
			_, on := chosen[v]
			dom.ToggleAttr(input, "checked", "", on)
		}
	case schema.FieldFile:
		// file inputs cannot carry a value; expose the name for hosts
		if f, ok := value.(store.File); ok && f.Name != "" {
			dom.SetAttr(n, "data-file-name", f.Name)
		} else {
			dom.RemoveAttr(n, "data-file-name")
		}
	default:
		s := visibility.Stringify(value)
		if s == "" {
			dom.RemoveAttr(n, "value")
			return
		}
		dom.SetAttr(n, "value", s)
	}
}
