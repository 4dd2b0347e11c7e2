// Package store holds the current value, validation error and bound UI node
// for every field the runtime manages.
package store

import (
	"sort"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

type entry struct {
	value    Value
	hasValue bool
	err      string
	element  *html.Node
}

// Store maps namespaced field ids to their state. It is not safe for
// concurrent use; the runtime serialises access.
type Store struct {
	entries map[string]*entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) ensure(id string) *entry {
	if s.entries == nil {
		s.entries = make(map[string]*entry)
	}
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// Get returns the value stored for id.
func (s *Store) Get(id string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.entries[id]
	if !ok || !e.hasValue {
		return nil, false
	}
	return Clone(e.value), true
}

// Has reports whether a value was ever set for id.
func (s *Store) Has(id string) bool {
	if s == nil {
		return false
	}
	e, ok := s.entries[id]
	return ok && e.hasValue
}

// Set stores value for id.
func (s *Store) Set(id string, value Value) {
	e := s.ensure(id)
	e.value = Clone(value)
	e.hasValue = true
}

// Delete drops every piece of state held for id.
func (s *Store) Delete(id string) {
	if s == nil {
		return
	}
	delete(s.entries, id)
}

// SetError records a validation message for id.
func (s *Store) SetError(id, message string) {
	s.ensure(id).err = message
}

// ClearError removes the validation message for id.
func (s *Store) ClearError(id string) {
	if s == nil {
		return
	}
	if e, ok := s.entries[id]; ok {
		e.err = ""
	}
}

// Error returns the validation message for id, or "".
func (s *Store) Error(id string) string {
	if s == nil {
		return ""
	}
	if e, ok := s.entries[id]; ok {
		return e.err
	}
	return ""
}

// Errors returns every non-empty validation message keyed by id.
func (s *Store) Errors() map[string]string {
	out := make(map[string]string)
	if s == nil {
		return out
	}
	for id, e := range s.entries {
		if e.err != "" {
			out[id] = e.err
		}
	}
	return out
}

// Bind associates the rendered input node with id.
func (s *Store) Bind(id string, node *html.Node) {
	s.ensure(id).element = node
}

// Element returns the node bound to id.
func (s *Store) Element(id string) *html.Node {
	if s == nil {
		return nil
	}
	if e, ok := s.entries[id]; ok {
		return e.element
	}
	return nil
}

// Unbind clears every element reference, typically before a rebuild.
func (s *Store) Unbind() {
	if s == nil {
		return
	}
	for _, e := range s.entries {
		e.element = nil
	}
}

// IDs lists every id with state, sorted.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Values returns a copy of every stored value keyed by id.
func (s *Store) Values() map[string]any {
	out := make(map[string]any)
	if s == nil {
		return out
	}
	for id, e := range s.entries {
		if e.hasValue {
			out[id] = Clone(e.value)
		}
	}
	return out
}

// Reset drops all state.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	s.entries = make(map[string]*entry)
}

// RemoveInstance deletes the state of instance index in section and shifts
// every later instance down by one so namespaced ids stay contiguous.
func (s *Store) RemoveInstance(section string, index int) {
	if s == nil {
		return
	}
	shifted := make(map[string]*entry, len(s.entries))
	for id, e := range s.entries {
		sec, i, field, ok := ParseInstanceFieldID(id)
		if !ok || sec != section {
			shifted[id] = e
			continue
		}
		switch {
		case i < index:
			shifted[id] = e
		case i > index:
			shifted[InstanceFieldID(section, i-1, field)] = e
		}
	}
	s.entries = shifted
}

// Snapshot produces the submission payload. Page-level input fields are keyed
// by id and repeatable sections become lists of objects keyed by template
// field id. Display-only fields are never included; include may exclude
// further ids (e.g. hidden fields). counts reports the number of instances of
// each section.
func (s *Store) Snapshot(form *schema.FormSchema, counts func(section string) int, include func(id string) bool) map[string]any {
	out := make(map[string]any)
	if form == nil {
		return out
	}
	if include == nil {
		include = func(string) bool { return true }
	}
	value := func(id string) any {
		v, ok := s.Get(id)
		if !ok {
			return nil
		}
		return v
	}

	for _, page := range form.Pages {
		for _, field := range page.Fields {
			if field.Type.IsDisplayOnly() || !include(field.ID) {
				continue
			}
			out[field.ID] = value(field.ID)
		}
	}

	for _, section := range form.RepeatableSections {
		n := 0
		if counts != nil {
			n = counts(section.ID)
		}
		items := make([]map[string]any, 0, n)
		for i := 0; i < n; i++ {
			item := make(map[string]any, len(section.Fields))
			for _, field := range section.Fields {
				id := InstanceFieldID(section.ID, i, field.ID)
				if field.Type.IsDisplayOnly() || !include(id) {
					continue
				}
				item[field.ID] = value(id)
			}
			items = append(items, item)
		}
		out[section.ID] = items
	}
	return out
}
