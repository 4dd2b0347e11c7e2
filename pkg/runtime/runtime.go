// Package runtime interprets a form schema and keeps the rendered tree, the
// field store and the derived state (visibility, calculated values, submit
// enablement) consistent across events.
//
// Every exported method is safe for concurrent use. Events are serialised by
// a mutex; the submit callback is the only call made without holding it.
package runtime

import (
	"fmt"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/expression"
	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/repeatable"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/submission"
	"github.com/goliatone/go-formruntime/pkg/validation"
	"github.com/goliatone/go-formruntime/pkg/visibility"
	visexpr "github.com/goliatone/go-formruntime/pkg/visibility/expr"
)

const defaultSuccessMessage = "Thank you!"

// Runtime is a live form instance mounted on a container node.
type Runtime struct {
	mu sync.Mutex

	cfg        Config
	form       *schema.FormSchema
	logger     *zap.Logger
	renderer   *render.Renderer
	selector   theme.ThemeSelector
	theme      render.Theme
	resolver   *visibility.Resolver
	controller *submission.Controller
	programs   map[string]*expression.Program
	programErr map[string]error

	store    *store.Store
	sections *repeatable.Manager
	tree     *render.Tree

	state         State
	page          int
	visible       map[string]bool
	disabled      map[string]bool
	calculated    map[string]string
	skipFired     []bool
	focused       string
	status        string
	announcements []string
}

// New validates cfg and prepares a runtime. Nothing is rendered until Render.
// A missing schema or container yields a *ConfigError; a structurally invalid
// schema yields a *schema.SchemaError.
func New(cfg Config, opts ...Option) (*Runtime, error) {
	if cfg.Schema == nil {
		return nil, &ConfigError{Field: "schema", Message: "schema is required"}
	}
	if cfg.Container == nil {
		return nil, &ConfigError{Field: "container", Message: "container is required"}
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	r := &Runtime{
		cfg:        cfg,
		form:       cfg.Schema,
		logger:     o.logger.Named("formruntime").With(zap.String("form", cfg.Schema.FormID)),
		selector:   o.selector,
		controller: submission.NewController(submission.WithTimeout(o.submitTimeout)),
		programs:   make(map[string]*expression.Program),
		programErr: make(map[string]error),
		store:      store.New(),
		sections:   repeatable.NewManager(cfg.Schema.RepeatableSections),
		state:      StateInitial,
		visible:    make(map[string]bool),
		disabled:   make(map[string]bool),
		calculated: make(map[string]string),
		skipFired:  make([]bool, len(cfg.Schema.SkipRules())),
	}

	renderOpts := []render.Option{render.WithHiddenFields(o.hidden...)}
	if o.registry != nil {
		renderOpts = append(renderOpts, render.WithRegistry(o.registry))
	}
	if o.sanitizer != nil {
		renderOpts = append(renderOpts, render.WithSanitizer(o.sanitizer))
	}
	if o.labelsProvided {
		renderOpts = append(renderOpts, render.WithLabels(o.labels))
	}
	r.renderer = render.New(renderOpts...)

	evaluator := o.evaluator
	if evaluator == nil {
		evaluator = visexpr.New()
	}
	r.resolver = visibility.NewResolver(
		visibility.WithEvaluator(evaluator),
		visibility.WithExtras(o.extras),
		visibility.WithErrorHandler(func(fieldPath string, err error) {
			r.logger.Warn("display expression failed; field hidden",
				zap.String("field", fieldPath), zap.Error(err))
		}),
	)

	for _, cf := range cfg.Schema.CalculatedFields {
		program, err := expression.Parse(cf.Expression)
		if err != nil {
			r.programErr[cf.ID] = err
			continue
		}
		r.programs[cf.ID] = program
	}

	themeName := strings.TrimSpace(cfg.Theme)
	if themeName == "" {
		themeName = cfg.Schema.Settings.Theme
	}
	resolved, err := render.ResolveTheme(r.selector, themeName, cfg.Schema.Settings.CustomStyles)
	if err != nil {
		r.logger.Warn("theme not found; using default", zap.String("theme", themeName), zap.Error(err))
	}
	r.theme = resolved

	r.applyDefaults()
	r.derive()
	r.primeSkipRules()
	return r, nil
}

// Render builds the form into the container. The first call moves the
// runtime out of initial; later calls rebuild from scratch.
func (r *Runtime) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateSubmitting:
		return ErrBusy
	case StateDestroyed, StateSubmitted:
		return notAllowed("render", r.state)
	}
	return r.rebuild()
}

// transition moves to next, logging the change.
func (r *Runtime) transition(next State) error {
	if !CanTransition(r.state, next) {
		return invalidTransition(r.state, next)
	}
	r.logger.Debug("runtime transition", zap.String("from", string(r.state)), zap.String("to", string(next)))
	r.state = next
	return nil
}

// rebuild performs a structural render: the whole tree is rebuilt and store
// values, errors and derived state are re-applied onto the new elements.
func (r *Runtime) rebuild() error {
	if err := r.transition(StateRendering); err != nil {
		return err
	}
	r.store.Unbind()
	r.applyDefaults()

	tree, err := r.renderer.Build(r.cfg.Container, render.State{
		Schema: r.form,
		Theme:  r.theme,
		Page:   r.page,
		Count:  r.sections.Count,
		Value:  r.value,
	})
	if err != nil {
		r.logger.Error("render failed", zap.Error(err))
		r.tree = nil
		_ = r.transition(StateIdle)
		return fmt.Errorf("runtime: render: %w", err)
	}
	r.tree = tree

	for _, id := range tree.IDs() {
		if input := tree.Input(id); input != nil {
			r.store.Bind(id, input)
		}
		if msg := r.store.Error(id); msg != "" {
			tree.SetError(id, msg)
		}
	}
	r.derive()
	r.paint()
	if r.status != "" {
		tree.ShowStatus(r.status)
	}
	if r.focused != "" {
		tree.Focus(r.focused)
	}
	return r.transition(StateIdle)
}

func (r *Runtime) value(id string) any {
	v, _ := r.store.Get(id)
	return v
}

func (r *Runtime) get(id string) (any, bool) {
	return r.store.Get(id)
}

// applyDefaults seeds defaultValue for every field instance that has no entry.
func (r *Runtime) applyDefaults() {
	for _, ref := range r.refs() {
		if ref.field.DefaultValue == nil || !ref.field.Type.IsInput() || r.store.Has(ref.id) {
			continue
		}
		r.store.Set(ref.id, store.Normalize(ref.field.Type, ref.field.DefaultValue))
	}
}

// derive recomputes calculated values, visibility and skip-rule enablement
// from the store. It does not touch the tree.
func (r *Runtime) derive() {
	for _, cf := range r.form.CalculatedFields {
		r.calculated[cf.ID] = expression.Format(r.evaluateCalculated(cf), string(cf.Format), cf.Places())
	}

	values := r.store.Values()
	for _, ref := range r.refs() {
		r.visible[ref.id] = r.resolver.Visible(ref.id, ref.field.ConditionalDisplay, r.scoped(ref), r.expressionValues(ref, values))
	}

	disabled := make(map[string]bool)
	for _, rule := range r.form.SkipRules() {
		switch rule.Action.Type {
		case schema.ActionEnableField, schema.ActionDisableField:
			if visibility.EvaluateRule(rule.Condition, r.get) {
				disabled[rule.Action.Target] = rule.Action.Type == schema.ActionDisableField
			}
		}
	}
	r.disabled = disabled
}

func (r *Runtime) evaluateCalculated(cf schema.CalculatedField) float64 {
	if err := r.programErr[cf.ID]; err != nil {
		r.logger.Warn("calculated field expression invalid; showing zero",
			zap.String("field", cf.ID), zap.Error(err))
		return 0
	}
	v, err := r.programs[cf.ID].Eval(r.get)
	if err != nil {
		r.logger.Debug("calculated field evaluation failed; showing zero",
			zap.String("field", cf.ID), zap.Error(err))
		return 0
	}
	return v
}

// expressionValues exposes the flat store plus, for instance fields, the
// sibling values under their template ids.
func (r *Runtime) expressionValues(ref fieldRef, values map[string]any) map[string]any {
	if ref.section == "" {
		return values
	}
	section, ok := r.form.Section(ref.section)
	if !ok {
		return values
	}
	scoped := make(map[string]any, len(values)+len(section.Fields))
	for k, v := range values {
		scoped[k] = v
	}
	for _, f := range section.Fields {
		if v, ok := values[store.InstanceFieldID(ref.section, ref.index, f.ID)]; ok {
			scoped[f.ID] = v
		}
	}
	return scoped
}

// paint applies derived state to the tree.
func (r *Runtime) paint() {
	if r.tree == nil {
		return
	}
	for id, text := range r.calculated {
		r.tree.SetCalculated(id, text)
	}
	for _, id := range r.tree.IDs() {
		r.tree.SetVisible(id, r.isVisible(id))
		r.tree.SetDisabled(id, r.disabled[id])
	}
	r.paintSubmit()
}

func (r *Runtime) paintSubmit() {
	if r.tree == nil {
		return
	}
	r.tree.SetSubmitState(r.requiredComplete(), r.state == StateSubmitting)
}

// requiredComplete reports whether every required, visible and enabled field
// of the active scope holds a value and has no error. In multi-page mode the
// scope is the active page plus the repeatable instances.
func (r *Runtime) requiredComplete() bool {
	for _, ref := range r.refs() {
		if r.form.Settings.MultiPage && ref.page >= 0 && ref.page != r.page {
			continue
		}
		if !ref.field.Type.IsInput() || !ref.field.IsRequired() || !r.active(ref.id) {
			continue
		}
		v, _ := r.store.Get(ref.id)
		if store.IsEmpty(v) || r.store.Error(ref.id) != "" {
			return false
		}
	}
	return true
}

func (r *Runtime) isVisible(id string) bool {
	v, ok := r.visible[id]
	return !ok || v
}

// active reports whether id takes part in validation and submission checks.
func (r *Runtime) active(id string) bool {
	return r.isVisible(id) && !r.disabled[id]
}

func (r *Runtime) announce(message string) {
	if message == "" {
		return
	}
	r.announcements = append(r.announcements, message)
	if r.tree != nil {
		r.tree.Announce(message)
	}
}

func (r *Runtime) focus(id string) {
	r.focused = id
	if r.tree != nil {
		r.tree.Focus(id)
	}
}

// State returns the lifecycle state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Schema returns the schema the runtime was built with.
func (r *Runtime) Schema() *schema.FormSchema {
	return r.form
}

// CurrentPage returns the id of the active page.
func (r *Runtime) CurrentPage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.form.Pages[r.page].ID
}

// CurrentPageIndex returns the zero-based index of the active page.
func (r *Runtime) CurrentPageIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page
}

// Errors returns the current field errors in form order.
func (r *Runtime) Errors() []validation.FieldError {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := r.store.Errors()
	if len(errs) == 0 {
		return nil
	}
	var out []validation.FieldError
	for _, ref := range r.refs() {
		if msg := errs[ref.id]; msg != "" {
			out = append(out, validation.FieldError{FieldID: ref.id, Message: msg})
		}
	}
	return out
}

// Error returns the error currently shown for id.
func (r *Runtime) Error(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Error(id)
}

// Value returns the stored value of id.
func (r *Runtime) Value(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Get(id)
}

// Focused returns the id of the field that last received focus.
func (r *Runtime) Focused() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// Announcements returns every live-region message in order.
func (r *Runtime) Announcements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.announcements...)
}

// Status returns the dismissable submission message, if any.
func (r *Runtime) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Visible reports whether a field is shown under its conditional display.
func (r *Runtime) Visible(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isVisible(id)
}

// Disabled reports whether a skip rule currently disables id.
func (r *Runtime) Disabled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled[id]
}

// CalculatedValue returns the formatted value of a calculated field.
func (r *Runtime) CalculatedValue(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.calculated[id]
	return v, ok
}

// InstanceCount returns the number of instances of a repeatable section.
func (r *Runtime) InstanceCount(section string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sections.Count(section)
}

// SubmitEnabled reports whether the submit control currently accepts input.
func (r *Runtime) SubmitEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.SubmitEnabled()
}

// Element returns the rendered element bound to id, or nil.
func (r *Runtime) Element(id string) *html.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Element(id)
}

// Theme returns the resolved theme.
func (r *Runtime) Theme() render.Theme {
	return r.theme
}

// HTML serialises the container's current children.
func (r *Runtime) HTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.HTML()
}

// RenderedFields lists the field ids of the current tree in document order.
func (r *Runtime) RenderedFields() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.IDs()
}

// Field resolves a page-level or namespaced instance id to its definition.
func (r *Runtime) Field(id string) (schema.Field, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.ref(id)
	return ref.field, ok
}

// CanAddInstance reports whether a section is below its maximum.
func (r *Runtime) CanAddInstance(section string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sections.CanAdd(section)
}
