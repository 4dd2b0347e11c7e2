package runtime

import (
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/validation"
	"github.com/goliatone/go-formruntime/pkg/visibility"
)

// fieldRef addresses one field instance. Page is -1 for repeatable instances.
type fieldRef struct {
	id      string
	field   schema.Field
	page    int
	section string
	index   int
}

func (f fieldRef) scope() string {
	if f.section == "" {
		return ""
	}
	return store.InstancePrefix(f.section, f.index)
}

// refs enumerates every field instance in form order: page fields first,
// then each section's instances.
func (r *Runtime) refs() []fieldRef {
	var out []fieldRef
	for pi, page := range r.form.Pages {
		for _, field := range page.Fields {
			out = append(out, fieldRef{id: field.ID, field: field, page: pi})
		}
	}
	for _, section := range r.form.RepeatableSections {
		n := r.sections.Count(section.ID)
		for i := 0; i < n; i++ {
			for _, field := range section.Fields {
				out = append(out, fieldRef{
					id:      store.InstanceFieldID(section.ID, i, field.ID),
					field:   field,
					page:    -1,
					section: section.ID,
					index:   i,
				})
			}
		}
	}
	return out
}

// ref resolves a namespaced id against the schema and live instance counts.
func (r *Runtime) ref(id string) (fieldRef, bool) {
	if sectionID, index, fieldID, ok := store.ParseInstanceFieldID(id); ok {
		section, found := r.form.Section(sectionID)
		if !found || index < 0 || index >= r.sections.Count(sectionID) {
			return fieldRef{}, false
		}
		field, found := section.Field(fieldID)
		if !found {
			return fieldRef{}, false
		}
		return fieldRef{id: id, field: field, page: -1, section: sectionID, index: index}, true
	}
	for pi, page := range r.form.Pages {
		for _, field := range page.Fields {
			if field.ID == id {
				return fieldRef{id: id, field: field, page: pi}, true
			}
		}
	}
	return fieldRef{}, false
}

// scoped resolves identifiers within an instance before the page level.
func (r *Runtime) scoped(ref fieldRef) visibility.Lookup {
	if ref.section == "" {
		return r.get
	}
	return visibility.Scoped(r.get, ref.scope())
}

// targets collects the active input fields accepted by keep.
func (r *Runtime) targets(keep func(fieldRef) bool) ([]validation.Target, []fieldRef) {
	var (
		targets []validation.Target
		skipped []fieldRef
	)
	for _, ref := range r.refs() {
		if !ref.field.Type.IsInput() || !keep(ref) {
			continue
		}
		if !r.active(ref.id) {
			skipped = append(skipped, ref)
			continue
		}
		v, _ := r.store.Get(ref.id)
		targets = append(targets, validation.Target{
			ID:     ref.id,
			Field:  ref.field,
			Value:  v,
			Lookup: r.scoped(ref),
		})
	}
	return targets, skipped
}

// validateScope validates the fields selected by keep, records errors in the
// store and on the tree, and clears errors of hidden or disabled fields.
func (r *Runtime) validateScope(keep func(fieldRef) bool) validation.Result {
	targets, skipped := r.targets(keep)
	for _, ref := range skipped {
		r.setError(ref.id, "")
	}
	result := validation.Validate(targets)
	for _, target := range targets {
		msg := ""
		if fe, ok := result.ErrorFor(target.ID); ok {
			msg = fe.Message
		}
		r.setError(target.ID, msg)
	}
	return result
}

// validateOne re-validates a single field instance.
func (r *Runtime) validateOne(ref fieldRef) {
	if !ref.field.Type.IsInput() {
		return
	}
	if !r.active(ref.id) {
		r.setError(ref.id, "")
		return
	}
	v, _ := r.store.Get(ref.id)
	msg := ""
	if fe := validation.ValidateField(ref.id, ref.field, v, r.scoped(ref)); fe != nil {
		msg = fe.Message
	}
	r.setError(ref.id, msg)
}

func (r *Runtime) setError(id, message string) {
	if message == "" {
		r.store.ClearError(id)
	} else {
		r.store.SetError(id, message)
	}
	if r.tree != nil {
		r.tree.SetError(id, message)
	}
}

// onActivePage reports whether ref is a page-level field of the active page.
// Repeatable instances are left to whole-form validation. Outside multi-page
// mode every page is active.
func (r *Runtime) onActivePage(ref fieldRef) bool {
	if ref.page < 0 {
		return false
	}
	return ref.page == r.page || !r.form.Settings.MultiPage
}

// pageOf returns the page index where ref is rendered. Section instances
// appear on every page, so they resolve to the active page.
func (r *Runtime) pageOf(ref fieldRef) int {
	if ref.page < 0 {
		return r.page
	}
	return ref.page
}
