package render

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/dom"
	"github.com/goliatone/go-formruntime/pkg/schema"
)

// FieldNodes groups the elements rendered for one field instance.
type FieldNodes struct {
	ID        string
	Field     schema.Field
	Container *html.Node
	// Input is the element bound to the value; nil for display-only fields.
	Input *html.Node
	Error *html.Node
	Help  *html.Node
}

// Tree is the result of a build. It owns the table from namespaced field id to
// rendered elements and patches value driven state in place.
type Tree struct {
	Root          *html.Node
	Form          *html.Node
	Live          *html.Node
	Progress      *html.Node
	Submit        *html.Node
	Previous      *html.Node
	Next          *html.Node
	Status        *html.Node
	StatusMessage *html.Node
	Success       *html.Node

	schema        *schema.FormSchema
	labels        Labels
	submitText    string
	fields        map[string]*FieldNodes
	order         []string
	pages         map[string]*html.Node
	calculated    map[string]*html.Node
	addButtons    map[string]*html.Node
	removeButtons map[string][]*html.Node
}

func newTree(root *html.Node, form *schema.FormSchema, labels Labels) *Tree {
	return &Tree{
		Root:          root,
		schema:        form,
		labels:        labels,
		fields:        make(map[string]*FieldNodes),
		pages:         make(map[string]*html.Node),
		calculated:    make(map[string]*html.Node),
		addButtons:    make(map[string]*html.Node),
		removeButtons: make(map[string][]*html.Node),
	}
}

func (t *Tree) add(n *FieldNodes) {
	if _, exists := t.fields[n.ID]; !exists {
		t.order = append(t.order, n.ID)
	}
	t.fields[n.ID] = n
}

func (t *Tree) calculatedField(cf schema.CalculatedField) *html.Node {
	node := dom.Element("div", "class", "form-calculated-field", "id", "calc-"+cf.ID, "data-calculated-id", cf.ID)
	if cf.Label != "" {
		dom.Append(node, dom.Append(dom.Element("span", "class", "form-calculated-label"), dom.Text(cf.Label)))
	}
	out := dom.Element("output", "class", "form-calculated-value", "aria-live", "polite")
	t.calculated[cf.ID] = out
	return dom.Append(node, out)
}

// Field returns the nodes rendered for id.
func (t *Tree) Field(id string) (*FieldNodes, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.fields[id]
	return n, ok
}

// Input returns the element bound to id, or nil when id is not rendered.
func (t *Tree) Input(id string) *html.Node {
	if n, ok := t.Field(id); ok {
		return n.Input
	}
	return nil
}

// IDs lists rendered field ids in document order.
func (t *Tree) IDs() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Page returns the container of a rendered page.
func (t *Tree) Page(id string) *html.Node {
	return t.pages[id]
}

// AddButton returns the add control of a section, nil once at max.
func (t *Tree) AddButton(section string) *html.Node {
	return t.addButtons[section]
}

// RemoveButtons returns the per-instance remove controls of a section.
func (t *Tree) RemoveButtons(section string) []*html.Node {
	return t.removeButtons[section]
}

// Calculated returns the output element of a calculated field.
func (t *Tree) Calculated(id string) *html.Node {
	return t.calculated[id]
}

// SetValue reflects value onto the element bound to id.
func (t *Tree) SetValue(id string, value any) {
	if n, ok := t.Field(id); ok && n.Input != nil {
		ApplyValue(n.Field.Type, n.Input, value)
	}
}

// SetError shows message in the field's error region, or clears it when
// message is empty.
func (t *Tree) SetError(id, message string) {
	n, ok := t.Field(id)
	if !ok || n.Error == nil {
		return
	}
	dom.SetText(n.Error, message)
	if message == "" {
		dom.SetAttr(n.Error, "aria-hidden", "true")
		dom.RemoveAttr(n.Input, "aria-invalid")
		dom.RemoveClass(n.Container, "form-field-error")
		return
	}
	dom.SetAttr(n.Error, "aria-hidden", "false")
	dom.SetAttr(n.Input, "aria-invalid", "true")
	dom.AddClass(n.Container, "form-field-error")
}

// SetVisible shows or hides a field container.
func (t *Tree) SetVisible(id string, visible bool) {
	n, ok := t.Field(id)
	if !ok {
		return
	}
	dom.ToggleAttr(n.Container, "hidden", "", !visible)
	dom.ToggleAttr(n.Container, "aria-hidden", "true", !visible)
}

// SetDisabled toggles the disabled state of a field's control.
func (t *Tree) SetDisabled(id string, disabled bool) {
	n, ok := t.Field(id)
	if !ok || n.Input == nil {
		return
	}
	dom.ToggleAttr(n.Input, "disabled", "", disabled)
	dom.ToggleAttr(n.Input, "aria-disabled", "true", disabled)
	if disabled {
		dom.AddClass(n.Container, "form-field-disabled")
	} else {
		dom.RemoveClass(n.Container, "form-field-disabled")
	}
}

// SetCalculated writes the formatted value of a calculated field.
func (t *Tree) SetCalculated(id, text string) {
	if out := t.calculated[id]; out != nil {
		dom.SetText(out, text)
	}
}

// SetSubmitState updates the submit control. busy wins over enabled.
func (t *Tree) SetSubmitState(enabled, busy bool) {
	btn := t.Submit
	if btn == nil {
		return
	}
	switch {
	case busy:
		dom.SetText(btn, t.labels.Submitting)
		dom.SetAttr(btn, "disabled", "")
		dom.SetAttr(btn, "aria-busy", "true")
		dom.RemoveAttr(btn, "aria-disabled")
		dom.RemoveAttr(btn, "title")
	case enabled:
		dom.SetText(btn, t.submitText)
		dom.RemoveAttr(btn, "disabled")
		dom.RemoveAttr(btn, "aria-busy")
		dom.RemoveAttr(btn, "aria-disabled")
		dom.RemoveAttr(btn, "title")
	default:
		dom.SetText(btn, t.submitText)
		dom.SetAttr(btn, "disabled", "")
		dom.RemoveAttr(btn, "aria-busy")
		dom.SetAttr(btn, "aria-disabled", "true")
		dom.SetAttr(btn, "title", t.labels.Incomplete)
	}
}

// SubmitEnabled reports whether the submit control accepts clicks.
func (t *Tree) SubmitEnabled() bool {
	return t != nil && t.Submit != nil && !dom.HasAttr(t.Submit, "disabled")
}

// ShowStatus displays a dismissable status message; an empty message hides
// the region.
func (t *Tree) ShowStatus(message string) {
	if t.Status == nil {
		return
	}
	dom.SetText(t.StatusMessage, message)
	dom.ToggleAttr(t.Status, "hidden", "", message == "")
}

// StatusText returns the status message currently shown.
func (t *Tree) StatusText() string {
	if t.Status == nil || dom.HasAttr(t.Status, "hidden") {
		return ""
	}
	return dom.TextContent(t.StatusMessage)
}

// Announce replaces the text of the polite live region.
func (t *Tree) Announce(message string) {
	dom.SetText(t.Live, message)
}

// ShowSuccess hides the form and appends the success block.
func (t *Tree) ShowSuccess(message string) {
	if t.Form != nil {
		dom.SetAttr(t.Form, "hidden", "")
	}
	if t.Success == nil {
		t.Success = dom.Element("div", "class", "form-success", "role", "alert")
		dom.Append(t.Root, t.Success)
	}
	dom.SetText(t.Success, message)
}

// Focus marks the element bound to id as focused, clearing any previous
// mark. For choice groups the first option receives focus.
func (t *Tree) Focus(id string) bool {
	for _, n := range dom.FindAll(t.Root, func(n *html.Node) bool { return dom.HasAttr(n, "data-focused") }) {
		dom.RemoveAttr(n, "data-focused")
	}
	n, ok := t.Field(id)
	if !ok || n.Input == nil {
		return false
	}
	target := n.Input
	if n.Field.Type == schema.FieldRadio || n.Field.Type == schema.FieldCheckboxes {
		if inputs := dom.ByTag(n.Input, "input"); len(inputs) > 0 {
			target = inputs[0]
		}
	}
	dom.SetAttr(target, "data-focused", "true")
	return true
}

// HTML serialises the container's children.
func (t *Tree) HTML() string {
	if t == nil || t.Root == nil {
		return ""
	}
	out, err := dom.RenderChildren(t.Root)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// Detach empties the container and drops every element reference.
func (t *Tree) Detach() {
	if t == nil {
		return
	}
	dom.Clear(t.Root)
	dom.RemoveAttr(t.Root, "class")
	dom.RemoveAttr(t.Root, "style")
	t.fields = make(map[string]*FieldNodes)
	t.order = nil
	t.pages = make(map[string]*html.Node)
	t.calculated = make(map[string]*html.Node)
	t.addButtons = make(map[string]*html.Node)
	t.removeButtons = make(map[string][]*html.Node)
	t.Form, t.Live, t.Progress, t.Submit = nil, nil, nil, nil
	t.Previous, t.Next, t.Status, t.StatusMessage, t.Success = nil, nil, nil, nil, nil
}
