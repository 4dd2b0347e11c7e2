package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/visibility"
)

// Input records a new value for a field, as a user typing or picking would.
// The value is normalized for the field type, the field is re-validated and
// dependent state (visibility, calculations, skip rules, submit enablement)
// is recomputed. Inputs are accepted while a submission is in flight.
func (r *Runtime) Input(id string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateIdle, StateSubmitting:
	default:
		return notAllowed("input", r.state)
	}

	ref, ok := r.ref(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	if !ref.field.Type.IsInput() {
		return fmt.Errorf("runtime: field %s does not accept input", id)
	}
	if r.disabled[id] {
		return fmt.Errorf("%w: %s", ErrFieldDisabled, id)
	}

	normalized := store.Normalize(ref.field.Type, value)
	r.store.Set(id, normalized)
	if r.tree != nil {
		r.tree.SetValue(id, normalized)
	}

	r.derive()
	r.validateOne(ref)
	page := r.page
	r.checkSkipRules()
	if r.page != page && r.state == StateIdle {
		return r.rebuild()
	}
	r.paint()
	return nil
}

// Change is the commit event of a field. It behaves like Input.
func (r *Runtime) Change(id string, value any) error {
	return r.Input(id, value)
}

// Blur validates a field on focus loss.
func (r *Runtime) Blur(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle && r.state != StateSubmitting {
		return notAllowed("blur", r.state)
	}
	ref, ok := r.ref(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	r.validateOne(ref)
	r.paintSubmit()
	return nil
}

// Focus marks a rendered field as focused.
func (r *Runtime) Focus(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ref(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	r.focus(id)
	return nil
}

// Next validates the active page and advances. On failure the first invalid
// field is focused and ErrValidationFailed is returned.
func (r *Runtime) Next() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.structural("next"); err != nil {
		return err
	}
	if !r.form.Settings.MultiPage || r.page >= len(r.form.Pages)-1 {
		return nil
	}
	result := r.validateScope(r.onActivePage)
	if !result.Valid {
		r.announce(fmt.Sprintf("Please fix %d error(s) on this page", len(result.Errors)))
		r.focus(result.Errors[0].FieldID)
		r.paintSubmit()
		return ErrValidationFailed
	}
	return r.navigate(r.page + 1)
}

// Previous moves back one page without validating.
func (r *Runtime) Previous() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.structural("previous"); err != nil {
		return err
	}
	if !r.form.Settings.MultiPage || r.page == 0 {
		return nil
	}
	return r.navigate(r.page - 1)
}

// GoToPage jumps to a page by id without validating.
func (r *Runtime) GoToPage(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.structural("navigate"); err != nil {
		return err
	}
	index := r.form.PageIndex(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}
	if index == r.page {
		return nil
	}
	return r.navigate(index)
}

func (r *Runtime) navigate(index int) error {
	r.page = index
	r.focused = ""
	if err := r.rebuild(); err != nil {
		return err
	}
	r.announce(fmt.Sprintf("Navigated to page %d of %d", index+1, len(r.form.Pages)))
	return nil
}

// structural guards operations that rebuild the tree.
func (r *Runtime) structural(op string) error {
	switch r.state {
	case StateIdle:
		return nil
	case StateSubmitting:
		return ErrBusy
	default:
		return notAllowed(op, r.state)
	}
}

// AddInstance appends an instance to a repeatable section. It reports false
// without error when the section is already at its maximum.
func (r *Runtime) AddInstance(section string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.structural("add instance"); err != nil {
		return false, err
	}
	def, ok := r.form.Section(section)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	if !r.sections.Add(section) {
		return false, nil
	}
	if err := r.rebuild(); err != nil {
		return true, err
	}
	r.announce(fmt.Sprintf("Added %s %d", instanceTitle(def, r.renderer.Labels().InstanceTitle), r.sections.Count(section)))
	return true, nil
}

// RemoveInstance deletes instance index of a section. Later instances shift
// down so their ids stay contiguous. It reports false without error at the
// minimum or for an out of range index.
func (r *Runtime) RemoveInstance(section string, index int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.structural("remove instance"); err != nil {
		return false, err
	}
	def, ok := r.form.Section(section)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	if !r.sections.Remove(section, index) {
		return false, nil
	}
	r.store.RemoveInstance(section, index)
	if r.focused != "" {
		if sec, _, _, isInstance := store.ParseInstanceFieldID(r.focused); isInstance && sec == section {
			r.focused = ""
		}
	}
	if err := r.rebuild(); err != nil {
		return true, err
	}
	r.announce(fmt.Sprintf("Removed %s %d", instanceTitle(def, r.renderer.Labels().InstanceTitle), index+1))
	return true, nil
}

func instanceTitle(def schema.RepeatableSection, fallback string) string {
	if def.Title != "" {
		return def.Title
	}
	return fallback
}

// DismissStatus hides the submission status message.
func (r *Runtime) DismissStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = ""
	if r.tree != nil {
		r.tree.ShowStatus("")
	}
}

// primeSkipRules records which skip-to-page conditions already hold so that
// only later transitions to true navigate.
func (r *Runtime) primeSkipRules() {
	for i, rule := range r.form.SkipRules() {
		if rule.Action.Type == schema.ActionSkipToPage {
			r.skipFired[i] = visibility.EvaluateRule(rule.Condition, r.get)
		}
	}
}

// checkSkipRules moves to the target page of the first skip-to-page rule
// whose condition became true. Enable and disable rules are applied by
// derive. A rule that turns true outside idle stays pending until the next
// check made while idle.
func (r *Runtime) checkSkipRules() {
	target := -1
	for i, rule := range r.form.SkipRules() {
		if rule.Action.Type != schema.ActionSkipToPage {
			continue
		}
		now := visibility.EvaluateRule(rule.Condition, r.get)
		if now && !r.skipFired[i] {
			if r.state != StateIdle {
				continue
			}
			if target < 0 && r.form.Settings.MultiPage {
				target = r.form.PageIndex(rule.Action.Target)
			}
		}
		r.skipFired[i] = now
	}
	if target < 0 || target == r.page {
		return
	}
	r.logger.Debug("skip rule navigation", zap.Int("from", r.page), zap.Int("to", target))
	r.page = target
}
