package repeatable

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

func intPtr(v int) *int { return &v }

func TestManager_ClampsAddRemove(t *testing.T) {
	t.Parallel()

	m := NewManager([]schema.RepeatableSection{{
		ID:           "contacts",
		MinInstances: intPtr(1),
		MaxInstances: intPtr(2),
		Fields:       []schema.Field{{ID: "email", Type: schema.FieldEmail}},
	}})

	if m.Count("contacts") != 1 {
		t.Fatalf("expected seed of 1, got %d", m.Count("contacts"))
	}
	if !m.Add("contacts") {
		t.Fatalf("first add should succeed")
	}
	if m.Add("contacts") {
		t.Fatalf("add beyond max should be a no-op")
	}
	if m.Count("contacts") != 2 {
		t.Fatalf("expected 2, got %d", m.Count("contacts"))
	}
	if m.Remove("contacts", 5) {
		t.Fatalf("out of range remove should be a no-op")
	}
	if !m.Remove("contacts", 0) {
		t.Fatalf("remove above min should succeed")
	}
	if m.Remove("contacts", 0) {
		t.Fatalf("remove at min should be a no-op")
	}
	if m.Count("contacts") != 1 {
		t.Fatalf("expected 1, got %d", m.Count("contacts"))
	}
	if m.Add("unknown") || m.Remove("unknown", 0) {
		t.Fatalf("unknown sections should be no-ops")
	}
}

func TestManager_RandomSequencesStayInBounds(t *testing.T) {
	t.Parallel()

	sections := []schema.RepeatableSection{
		{ID: "a", MinInstances: intPtr(0), MaxInstances: intPtr(3)},
		{ID: "b", MinInstances: intPtr(2), MaxInstances: intPtr(4)},
		{ID: "c"},
	}
	m := NewManager(sections)
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 2000; step++ {
		section := sections[rng.Intn(len(sections))]
		if rng.Intn(2) == 0 {
			m.Add(section.ID)
		} else {
			m.Remove(section.ID, rng.Intn(6)-1)
		}
		for _, s := range sections {
			n := m.Count(s.ID)
			if n < s.Min() {
				t.Fatalf("step %d: %s below min: %d", step, s.ID, n)
			}
			if s.Max() > 0 && n > s.Max() {
				t.Fatalf("step %d: %s above max: %d", step, s.ID, n)
			}
		}
	}
}

func TestManager_FieldIDsAndReset(t *testing.T) {
	t.Parallel()

	m := NewManager([]schema.RepeatableSection{{
		ID:     "items",
		Fields: []schema.Field{{ID: "name"}, {ID: "price"}},
	}})
	if diff := cmp.Diff([]string{"items[2].name", "items[2].price"}, m.FieldIDs("items", 2)); diff != "" {
		t.Fatalf("field ids mismatch (-want +got):\n%s", diff)
	}

	m.Add("items")
	m.Add("items")
	if got := m.SetCount("items", 0); got != 1 {
		t.Fatalf("SetCount should clamp to min, got %d", got)
	}
	m.Add("items")
	m.Reset()
	if m.Count("items") != 1 {
		t.Fatalf("reset should return to min")
	}
	if diff := cmp.Diff([]string{"items"}, m.Sections()); diff != "" {
		t.Fatalf("sections mismatch: %s", diff)
	}
}
