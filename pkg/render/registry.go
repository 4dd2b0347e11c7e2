package render

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

// Control describes one field instance handed to a ControlFunc.
type Control struct {
	// ID is the namespaced field id used for id and name attributes.
	ID          string
	Field       schema.Field
	Value       any
	DescribedBy string
	// Sanitize cleans author supplied markup for richtext blocks.
	Sanitize func(string) string
}

// ControlFunc builds the element(s) for a field type. node is inserted in the
// field container; input is the element bound to the field (the input itself,
// or the fieldset for choice groups). Display-only controls return a nil
// input.
type ControlFunc func(ctl Control) (node *html.Node, input *html.Node)

// Registry maps field types to control builders, providing discovery and
// duplication safeguards.
type Registry struct {
	mu       sync.RWMutex
	controls map[schema.FieldType]ControlFunc
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		controls: make(map[schema.FieldType]ControlFunc),
	}
}

// DefaultRegistry returns a registry populated with the built-in controls for
// every known field type.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for fieldType, fn := range defaultControls() {
		r.MustRegister(fieldType, fn)
	}
	return r
}

// Register adds a control builder. Duplicate types return an error.
func (r *Registry) Register(fieldType schema.FieldType, fn ControlFunc) error {
	if fn == nil {
		return fmt.Errorf("render: control is required")
	}
	if fieldType == "" {
		return fmt.Errorf("render: field type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controls[fieldType]; exists {
		return fmt.Errorf("render: control %q already registered", fieldType)
	}
	r.controls[fieldType] = fn
	return nil
}

// Replace installs fn for fieldType, overriding any existing control.
func (r *Registry) Replace(fieldType schema.FieldType, fn ControlFunc) {
	if fn == nil || fieldType == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controls[fieldType] = fn
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(fieldType schema.FieldType, fn ControlFunc) {
	if err := r.Register(fieldType, fn); err != nil {
		panic(err)
	}
}

// Get retrieves the control for a field type.
func (r *Registry) Get(fieldType schema.FieldType) (ControlFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.controls[fieldType]
	if !ok {
		return nil, fmt.Errorf("render: control %q not found", fieldType)
	}
	return fn, nil
}

// List returns a sorted list of registered field types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.controls))
	for name := range r.controls {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Has reports whether a control is registered for fieldType.
func (r *Registry) Has(fieldType schema.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.controls[fieldType]
	return ok
}
