// Package testsupport holds fixture helpers shared by the package tests that
// sit above the runtime: page output, terminal sessions and the root facade.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-formruntime/pkg/dom"
	"github.com/goliatone/go-formruntime/pkg/runtime"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/submission"
)

// LoadSchema reads and validates a form schema fixture (JSON or YAML).
func LoadSchema(t *testing.T, path string) *schema.FormSchema {
	t.Helper()

	form, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return form
}

// LoadSchemaFromPath returns the parsed schema without requiring testing.T so
// callers can prepare fixtures in setup functions.
func LoadSchemaFromPath(path string) (*schema.FormSchema, error) {
	if path == "" {
		return nil, errors.New("testsupport: schema path is required")
	}
	form, err := schema.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: load schema: %w", err)
	}
	return form, nil
}

// Mount builds and renders a runtime for form in a detached container.
func Mount(t *testing.T, form *schema.FormSchema, submitter submission.Submitter, opts ...runtime.Option) *runtime.Runtime {
	t.Helper()

	rt, err := runtime.New(runtime.Config{
		Schema:    form,
		Container: dom.Element("div", "id", "mount"),
		OnSubmit:  submitter,
	}, opts...)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if err := rt.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	t.Cleanup(rt.Destroy)
	return rt
}

// Recorder is a Submitter that records payloads and replays scripted
// results. Once the script runs out every call succeeds.
type Recorder struct {
	mu       sync.Mutex
	script   []Reply
	payloads []map[string]any
}

// Reply is one scripted submitter outcome.
type Reply struct {
	Result submission.Result
	Err    error
}

// NewRecorder returns a Recorder replaying replies in order.
func NewRecorder(replies ...Reply) *Recorder {
	return &Recorder{script: replies}
}

// Submit implements submission.Submitter.
func (r *Recorder) Submit(_ context.Context, data map[string]any) (submission.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, data)
	if len(r.script) == 0 {
		return submission.Result{Success: true}, nil
	}
	next := r.script[0]
	r.script = r.script[1:]
	return next.Result, next.Err
}

// Calls reports how many submissions were received.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

// Last returns the most recent payload, or nil.
func (r *Recorder) Last() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.payloads) == 0 {
		return nil
	}
	return r.payloads[len(r.payloads)-1]
}

// AssertContains fails when out lacks any of the fragments.
func AssertContains(t *testing.T, out string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(out, fragment) {
			t.Fatalf("output missing %q:\n%s", fragment, out)
		}
	}
}
