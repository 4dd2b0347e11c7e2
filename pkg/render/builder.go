package render

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/dom"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
)

// Labels holds the fixed user facing strings of the rendered form.
type Labels struct {
	Submit         string
	Submitting     string
	Previous       string
	Next           string
	AddInstance    string
	RemoveInstance string
	InstanceTitle  string
	Dismiss        string
	Incomplete     string
	FormFallback   string
}

// DefaultLabels returns the English strings.
func DefaultLabels() Labels {
	return Labels{
		Submit:         "Submit",
		Submitting:     "Submitting...",
		Previous:       "Previous",
		Next:           "Next",
		AddInstance:    "Add Another",
		RemoveInstance: "Remove",
		InstanceTitle:  "Item",
		Dismiss:        "Dismiss",
		Incomplete:     "Please complete all required fields",
		FormFallback:   "Form",
	}
}

// Renderer builds the UI tree of a form.
type Renderer struct {
	registry *Registry
	sanitize Sanitizer
	labels   Labels
	hidden   []HiddenField
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithRegistry replaces the control registry.
func WithRegistry(reg *Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithSanitizer replaces the richtext sanitizer.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) {
		if s != nil {
			r.sanitize = s
		}
	}
}

// WithLabels overrides the fixed strings. Empty entries keep the defaults.
func WithLabels(labels Labels) Option {
	return func(r *Renderer) {
		r.labels = mergeLabels(r.labels, labels)
	}
}

// WithHiddenFields emits host hidden inputs (CSRF tokens, versions) at the
// top of the form.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(r *Renderer) {
		r.hidden = append(r.hidden, fields...)
	}
}

// New constructs a Renderer with the default registry, sanitizer and labels.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		registry: DefaultRegistry(),
		sanitize: DefaultSanitizer(),
		labels:   DefaultLabels(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Labels returns the strings in use.
func (r *Renderer) Labels() Labels {
	return r.labels
}

// State is the input of a build: the schema, the active page, the instance
// counts and the values to reflect onto the fresh elements.
type State struct {
	Schema *schema.FormSchema
	Theme  Theme
	Page   int
	Count  func(section string) int
	Value  func(id string) any
}

// Build replaces the children of container with a freshly built form. The
// returned Tree owns the id to element table for the new nodes; references
// into a previous Tree must not be reused.
func (r *Renderer) Build(container *html.Node, st State) (*Tree, error) {
	if container == nil {
		return nil, fmt.Errorf("render: container is required")
	}
	form := st.Schema
	if form == nil {
		return nil, schema.ErrNilSchema
	}
	if st.Value == nil {
		st.Value = func(string) any { return nil }
	}
	if st.Count == nil {
		st.Count = func(string) int { return 0 }
	}
	if st.Page < 0 || st.Page >= len(form.Pages) {
		st.Page = 0
	}

	dom.Clear(container)
	dom.SetAttr(container, "class", "form-runtime "+st.Theme.Class())
	if style := st.Theme.Style(); style != "" {
		dom.SetAttr(container, "style", style)
	} else {
		dom.RemoveAttr(container, "style")
	}

	t := newTree(container, form, r.labels)
	t.Live = dom.Element("div",
		"class", "sr-only form-live",
		"role", "status",
		"aria-live", "polite",
		"aria-atomic", "true",
	)
	dom.Append(container, t.Live)

	title := form.Title
	if title == "" {
		title = r.labels.FormFallback
	}
	t.Form = dom.Element("form", "novalidate", "novalidate", "aria-label", title, "data-form-id", form.FormID)
	dom.Append(container, t.Form)
	dom.Append(t.Form, hiddenInputs(r.hidden)...)

	multi := form.Settings.MultiPage
	if multi && form.Settings.ProgressBar {
		t.Progress = progressBar(st.Page, len(form.Pages))
		dom.Append(t.Form, t.Progress)
	}

	for i, page := range form.Pages {
		if multi && i != st.Page {
			continue
		}
		node, err := r.page(t, page, st)
		if err != nil {
			return nil, err
		}
		dom.Append(t.Form, node)
	}

	for _, section := range form.RepeatableSections {
		node, err := r.section(t, section, st)
		if err != nil {
			return nil, err
		}
		dom.Append(t.Form, node)
	}

	if len(form.CalculatedFields) > 0 {
		calc := dom.Element("div", "class", "form-calculated-fields")
		for _, cf := range form.CalculatedFields {
			dom.Append(calc, t.calculatedField(cf))
		}
		dom.Append(t.Form, calc)
	}

	if multi {
		dom.Append(t.Form, r.navigation(t, st.Page, len(form.Pages)))
	}

	t.submitText = form.Settings.SubmitButtonText
	if t.submitText == "" {
		t.submitText = r.labels.Submit
	}
	t.Submit = dom.Append(
		dom.Element("button", "type", "submit", "class", "form-submit-btn", "data-action", "submit"),
		dom.Text(t.submitText),
	)
	dom.Append(t.Form, t.Submit)

	t.StatusMessage = dom.Element("span", "class", "form-status-message")
	t.Status = dom.Append(
		dom.Element("div", "id", "form-status", "class", "form-status", "role", "alert", "hidden", ""),
		t.StatusMessage,
		dom.Append(
			dom.Element("button", "type", "button", "class", "form-status-dismiss", "data-action", "dismiss-status"),
			dom.Text(r.labels.Dismiss),
		),
	)
	dom.Append(t.Form, t.Status)
	return t, nil
}

func progressBar(page, total int) *html.Node {
	current := page + 1
	percent := float64(current) / float64(total) * 100
	label := fmt.Sprintf("Page %d of %d", current, total)
	bar := dom.Element("div",
		"class", "form-progress-bar",
		"style", "width: "+strconv.FormatFloat(percent, 'f', -1, 64)+"%",
		"aria-hidden", "true",
	)
	return dom.Append(dom.Element("div",
		"class", "form-progress",
		"role", "progressbar",
		"aria-valuenow", strconv.Itoa(current),
		"aria-valuemin", "1",
		"aria-valuemax", strconv.Itoa(total),
		"aria-label", label,
	), bar, dom.Append(dom.Element("span", "class", "form-progress-text"), dom.Text(label)))
}

func (r *Renderer) page(t *Tree, page schema.Page, st State) (*html.Node, error) {
	node := dom.Element("div", "class", "form-page", "id", "page-"+page.ID, "data-page-id", page.ID)
	if page.Title != "" {
		dom.Append(node, dom.Append(dom.Element("h2", "class", "form-page-title"), dom.Text(page.Title)))
	}
	fields := dom.Element("div", "class", "form-fields")
	for _, field := range page.Fields {
		el, err := r.field(t, field.ID, field, st.Value(field.ID))
		if err != nil {
			return nil, err
		}
		dom.Append(fields, el)
	}
	t.pages[page.ID] = node
	return dom.Append(node, fields), nil
}

func (r *Renderer) section(t *Tree, section schema.RepeatableSection, st State) (*html.Node, error) {
	title := section.Title
	if title == "" {
		title = section.ID
	}
	node := dom.Append(
		dom.Element("div", "class", "form-repeatable-section", "id", "repeatable-"+section.ID, "data-section", section.ID),
		dom.Append(dom.Element("h3"), dom.Text(title)),
	)

	count := st.Count(section.ID)
	instanceTitle := section.Title
	if instanceTitle == "" {
		instanceTitle = r.labels.InstanceTitle
	}
	removeText := section.RemoveButtonText
	if removeText == "" {
		removeText = r.labels.RemoveInstance
	}
	for i := 0; i < count; i++ {
		instance := dom.Element("div", "class", "form-repeatable-instance", "data-instance-index", strconv.Itoa(i))
		dom.Append(instance, dom.Append(dom.Element("h4"), dom.Text(fmt.Sprintf("%s %d", instanceTitle, i+1))))
		for _, field := range section.Fields {
			id := store.InstanceFieldID(section.ID, i, field.ID)
			el, err := r.field(t, id, field, st.Value(id))
			if err != nil {
				return nil, err
			}
			dom.Append(instance, el)
		}
		if count > section.Min() {
			btn := dom.Append(dom.Element("button",
				"type", "button",
				"class", "form-remove-instance-btn",
				"data-action", "remove-instance",
				"data-section", section.ID,
				"data-index", strconv.Itoa(i),
			), dom.Text(removeText))
			t.removeButtons[section.ID] = append(t.removeButtons[section.ID], btn)
			dom.Append(instance, btn)
		}
		dom.Append(node, instance)
	}

	if upper := section.Max(); upper == 0 || count < upper {
		addText := section.AddButtonText
		if addText == "" {
			addText = r.labels.AddInstance
		}
		btn := dom.Append(dom.Element("button",
			"type", "button",
			"class", "form-add-instance-btn",
			"data-action", "add-instance",
			"data-section", section.ID,
		), dom.Text(addText))
		t.addButtons[section.ID] = btn
		dom.Append(node, btn)
	}
	return node, nil
}

func (r *Renderer) field(t *Tree, id string, field schema.Field, value any) (*html.Node, error) {
	build, err := r.registry.Get(field.Type)
	if err != nil {
		return nil, fmt.Errorf("render: field %s: %w", id, err)
	}

	container := dom.Element("div",
		"class", "form-field form-field-"+string(field.Type),
		"data-field-id", id,
	)
	if field.Layout != nil && field.Layout.Width != "" && field.Layout.Width != schema.WidthFull {
		dom.AddClass(container, "form-field-"+string(field.Layout.Width))
	}

	nodes := &FieldNodes{ID: id, Field: field, Container: container}

	describedBy := ""
	if field.Type.IsInput() {
		if field.HelpText != "" {
			describedBy = "help-" + id + " "
		}
		describedBy += "error-" + id
	}

	node, input := build(Control{
		ID:          id,
		Field:       field,
		Value:       value,
		DescribedBy: describedBy,
		Sanitize:    r.sanitize,
	})

	if input != nil && labelled(field.Type) {
		label := dom.Append(dom.Element("label", "for", id, "class", "form-label"), dom.Text(field.DisplayLabel()))
		if field.IsRequired() {
			dom.Append(label, requiredMarker())
		}
		dom.Append(container, label)
	}
	if node != nil {
		dom.Append(container, node)
	}
	nodes.Input = input

	if field.Type.IsInput() {
		if field.HelpText != "" {
			nodes.Help = dom.Append(dom.Element("div", "class", "form-help-text", "id", "help-"+id), dom.Text(field.HelpText))
			dom.Append(container, nodes.Help)
		}
		nodes.Error = dom.Element("div",
			"class", "form-error",
			"id", "error-"+id,
			"role", "alert",
			"aria-live", "assertive",
			"aria-hidden", "true",
		)
		dom.Append(container, nodes.Error)
	}

	t.add(nodes)
	return container, nil
}

// labelled reports whether the control needs a separate <label>. Choice
// groups carry a legend and hidden inputs are not presented.
func labelled(t schema.FieldType) bool {
	switch t {
	case schema.FieldHidden, schema.FieldRadio, schema.FieldCheckboxes:
		return false
	}
	return t.IsInput()
}

func (r *Renderer) navigation(t *Tree, page, total int) *html.Node {
	nav := dom.Element("div", "class", "form-navigation")
	if page > 0 {
		t.Previous = dom.Append(dom.Element("button",
			"type", "button",
			"class", "form-nav-btn form-nav-prev",
			"data-action", "previous",
		), dom.Text(r.labels.Previous))
		dom.Append(nav, t.Previous)
	}
	if page < total-1 {
		t.Next = dom.Append(dom.Element("button",
			"type", "button",
			"class", "form-nav-btn form-nav-next",
			"data-action", "next",
		), dom.Text(r.labels.Next))
		dom.Append(nav, t.Next)
	}
	return nav
}

func mergeLabels(base, override Labels) Labels {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.Submit, override.Submit)
	pick(&base.Submitting, override.Submitting)
	pick(&base.Previous, override.Previous)
	pick(&base.Next, override.Next)
	pick(&base.AddInstance, override.AddInstance)
	pick(&base.RemoveInstance, override.RemoveInstance)
	pick(&base.InstanceTitle, override.InstanceTitle)
	pick(&base.Dismiss, override.Dismiss)
	pick(&base.Incomplete, override.Incomplete)
	pick(&base.FormFallback, override.FormFallback)
	return base
}
