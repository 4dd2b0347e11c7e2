// Package repeatable tracks instance counts for repeatable sections and keeps
// them within each section's bounds.
package repeatable

import (
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
)

// Manager owns the instance count of every repeatable section. Add and Remove
// are no-ops when they would leave the [min, max] range.
type Manager struct {
	sections map[string]schema.RepeatableSection
	order    []string
	counts   map[string]int
}

// NewManager seeds every section at its minimum instance count.
func NewManager(sections []schema.RepeatableSection) *Manager {
	m := &Manager{
		sections: make(map[string]schema.RepeatableSection, len(sections)),
		counts:   make(map[string]int, len(sections)),
	}
	for _, section := range sections {
		if _, dup := m.sections[section.ID]; dup {
			continue
		}
		m.sections[section.ID] = section
		m.order = append(m.order, section.ID)
	}
	m.Reset()
	return m
}

// Reset returns every section to its minimum.
func (m *Manager) Reset() {
	if m == nil {
		return
	}
	for id, section := range m.sections {
		m.counts[id] = section.Min()
	}
}

// Sections returns section ids in schema order.
func (m *Manager) Sections() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Count returns the current number of instances.
func (m *Manager) Count(section string) int {
	if m == nil {
		return 0
	}
	return m.counts[section]
}

// CanAdd reports whether another instance fits under the maximum.
func (m *Manager) CanAdd(section string) bool {
	if m == nil {
		return false
	}
	def, ok := m.sections[section]
	if !ok {
		return false
	}
	limit := def.Max()
	return limit == 0 || m.counts[section] < limit
}

// CanRemove reports whether an instance can be removed without dropping below
// the minimum.
func (m *Manager) CanRemove(section string) bool {
	if m == nil {
		return false
	}
	def, ok := m.sections[section]
	if !ok {
		return false
	}
	return m.counts[section] > def.Min()
}

// Add appends an instance. It returns false, changing nothing, at the maximum
// or for an unknown section.
func (m *Manager) Add(section string) bool {
	if !m.CanAdd(section) {
		return false
	}
	m.counts[section]++
	return true
}

// Remove deletes the instance at index. It returns false, changing nothing,
// at the minimum or for an out of range index.
func (m *Manager) Remove(section string, index int) bool {
	if !m.CanRemove(section) {
		return false
	}
	if index < 0 || index >= m.counts[section] {
		return false
	}
	m.counts[section]--
	return true
}

// SetCount forces a count, clamped to the section bounds. Used when loading
// data that carries its own list length.
func (m *Manager) SetCount(section string, n int) int {
	if m == nil {
		return 0
	}
	def, ok := m.sections[section]
	if !ok {
		return 0
	}
	if n < def.Min() {
		n = def.Min()
	}
	if limit := def.Max(); limit > 0 && n > limit {
		n = limit
	}
	m.counts[section] = n
	return n
}

// FieldIDs returns the namespaced ids of instance index in template order.
func (m *Manager) FieldIDs(section string, index int) []string {
	if m == nil {
		return nil
	}
	def, ok := m.sections[section]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(def.Fields))
	for _, field := range def.Fields {
		ids = append(ids, store.InstanceFieldID(section, index, field.ID))
	}
	return ids
}
