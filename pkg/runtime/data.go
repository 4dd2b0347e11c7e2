package runtime

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/validation"
)

// GetData returns the submission snapshot: page-level input values keyed by
// field id and one list of objects per repeatable section. Fields hidden by
// conditional display are left out; disabled fields are kept.
func (r *Runtime) GetData() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Runtime) snapshot() map[string]any {
	return r.store.Snapshot(r.form, r.sections.Count, r.isVisible)
}

// SetData loads values. Keys are page-level field ids, namespaced instance
// ids, or section ids holding a list of objects; a list resizes the section
// within its bounds. A nil value clears the entry. Unknown keys are ignored.
// Before Render the values only seed the store.
func (r *Runtime) SetData(data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateSubmitting:
		return ErrBusy
	case StateDestroyed:
		return notAllowed("set data", r.state)
	}

	for key, raw := range data {
		if _, ok := r.form.Section(key); ok {
			r.loadSection(key, raw)
			continue
		}
		ref, ok := r.ref(key)
		if !ok {
			if sec, idx, _, isInstance := store.ParseInstanceFieldID(key); isInstance && idx >= r.sections.Count(sec) {
				r.sections.SetCount(sec, idx+1)
				ref, ok = r.ref(key)
			}
		}
		if !ok || !ref.field.Type.IsInput() {
			r.logger.Debug("set data: ignoring key", zap.String("key", key))
			continue
		}
		r.put(key, ref, raw)
	}

	r.derive()
	r.primeSkipRules()
	if r.state == StateIdle {
		return r.rebuild()
	}
	return nil
}

func (r *Runtime) loadSection(section string, raw any) {
	var items []map[string]any
	switch v := raw.(type) {
	case []map[string]any:
		items = v
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	case nil:
	default:
		r.logger.Debug("set data: section value is not a list", zap.String("section", section))
		return
	}

	for i, n := 0, r.sections.Count(section); i < n; i++ {
		for _, id := range r.sections.FieldIDs(section, i) {
			r.store.Delete(id)
		}
	}
	n := r.sections.SetCount(section, len(items))
	for i := 0; i < n && i < len(items); i++ {
		for key, value := range items[i] {
			id := store.InstanceFieldID(section, i, key)
			if ref, ok := r.ref(id); ok && ref.field.Type.IsInput() {
				r.put(id, ref, value)
			}
		}
	}
}

func (r *Runtime) put(id string, ref fieldRef, raw any) {
	if raw == nil {
		r.store.Delete(id)
		return
	}
	r.store.Set(id, store.Normalize(ref.field.Type, raw))
}

// Reset clears every value, error and instance, returns to the first page and
// re-renders with defaults. It is also the way out of the submitted state.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateIdle, StateSubmitted:
	case StateSubmitting:
		return ErrBusy
	default:
		return notAllowed("reset", r.state)
	}

	r.store.Reset()
	r.sections.Reset()
	r.page = 0
	r.status = ""
	r.focused = ""
	for i := range r.skipFired {
		r.skipFired[i] = false
	}
	r.applyDefaults()
	r.derive()
	r.primeSkipRules()
	return r.rebuild()
}

// Destroy detaches every element the runtime rendered and releases the
// container. It is idempotent and terminal.
func (r *Runtime) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateDestroyed {
		return
	}
	r.tree.Detach()
	r.tree = nil
	r.store.Unbind()
	r.logger.Debug("runtime transition", zap.String("from", string(r.state)), zap.String("to", string(StateDestroyed)))
	r.state = StateDestroyed
}

// Validate checks every visible, enabled input on every page and instance.
// Errors are shown on the tree; OnValidationError receives them in form order.
func (r *Runtime) Validate() bool {
	r.mu.Lock()
	result := r.validateAll()
	r.mu.Unlock()

	if !result.Valid && r.cfg.OnValidationError != nil {
		r.cfg.OnValidationError(result.Errors)
	}
	return result.Valid
}

func (r *Runtime) validateAll() validation.Result {
	result := r.validateScope(func(fieldRef) bool { return true })
	r.paintSubmit()
	return result
}

// ValidatePage checks the page-level fields of the active page.
func (r *Runtime) ValidatePage() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.validateScope(r.onActivePage)
	r.paintSubmit()
	return result.Valid
}
