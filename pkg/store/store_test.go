package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

func TestStore_ValuesAndErrors(t *testing.T) {
	t.Parallel()

	s := New()
	if _, ok := s.Get("name"); ok {
		t.Fatalf("empty store should not report values")
	}
	s.Set("name", "Ada")
	s.SetError("name", "too short")
	if v, _ := s.Get("name"); v != "Ada" {
		t.Fatalf("got %v", v)
	}
	if s.Error("name") != "too short" {
		t.Fatalf("expected error to be stored")
	}
	if diff := cmp.Diff(map[string]string{"name": "too short"}, s.Errors()); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
	s.ClearError("name")
	if s.Error("name") != "" {
		t.Fatalf("expected error to be cleared")
	}

	tags := []string{"a"}
	s.Set("tags", tags)
	tags[0] = "mutated"
	got, _ := s.Get("tags")
	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Fatalf("store aliased caller slice (-want +got):\n%s", diff)
	}

	node := &html.Node{Type: html.ElementNode, Data: "input"}
	s.Bind("name", node)
	if s.Element("name") != node {
		t.Fatalf("expected bound element")
	}
	s.Unbind()
	if s.Element("name") != nil {
		t.Fatalf("expected element to be unbound")
	}
	if v, _ := s.Get("name"); v != "Ada" {
		t.Fatalf("unbind must keep values, got %v", v)
	}
}

func TestStore_RemoveInstanceShifts(t *testing.T) {
	t.Parallel()

	s := New()
	s.Set("name", "top")
	s.Set("contacts[0].email", "a@x")
	s.Set("contacts[1].email", "b@x")
	s.Set("contacts[2].email", "c@x")
	s.SetError("contacts[2].email", "bad")
	s.Set("other[1].email", "keep")

	s.RemoveInstance("contacts", 1)

	want := map[string]any{
		"name":              "top",
		"contacts[0].email": "a@x",
		"contacts[1].email": "c@x",
		"other[1].email":    "keep",
	}
	if diff := cmp.Diff(want, s.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if s.Error("contacts[1].email") != "bad" {
		t.Fatalf("errors should shift with their instance")
	}
}

func TestStore_Snapshot(t *testing.T) {
	t.Parallel()

	two := 2
	form := &schema.FormSchema{
		FormID: "f",
		Pages: []schema.Page{{
			ID: "p",
			Fields: []schema.Field{
				{ID: "intro", Type: schema.FieldHeader, Label: "Hi"},
				{ID: "name", Type: schema.FieldText},
				{ID: "secret", Type: schema.FieldText},
				{ID: "age", Type: schema.FieldNumber},
			},
		}},
		RepeatableSections: []schema.RepeatableSection{{
			ID:           "contacts",
			MaxInstances: &two,
			Fields: []schema.Field{
				{ID: "note", Type: schema.FieldParagraph},
				{ID: "email", Type: schema.FieldEmail},
			},
		}},
	}

	s := New()
	s.Set("name", "Ada")
	s.Set("secret", "x")
	s.Set("contacts[0].email", "a@x")

	got := s.Snapshot(form,
		func(string) int { return 2 },
		func(id string) bool { return id != "secret" },
	)
	want := map[string]any{
		"name": "Ada",
		"age":  nil,
		"contacts": []map[string]any{
			{"email": "a@x"},
			{"email": nil},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInstanceFieldID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		id      string
		section string
		index   int
		field   string
		ok      bool
	}{
		{"contacts[3].email", "contacts", 3, "email", true},
		{InstanceFieldID("s", 0, "f"), "s", 0, "f", true},
		{"name", "", 0, "", false},
		{"contacts[x].email", "", 0, "", false},
		{"contacts[1]", "", 0, "", false},
		{"[1].email", "", 0, "", false},
	}
	for _, tc := range cases {
		section, index, field, ok := ParseInstanceFieldID(tc.id)
		if ok != tc.ok || section != tc.section || index != tc.index || field != tc.field {
			t.Fatalf("%s: got (%q, %d, %q, %v)", tc.id, section, index, field, ok)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		typ  schema.FieldType
		in   any
		want any
	}{
		{"number from string", schema.FieldNumber, "2.5", 2.5},
		{"number empty", schema.FieldNumber, " ", ""},
		{"number from int", schema.FieldNumber, 3, 3.0},
		{"checkboxes from any", schema.FieldCheckboxes, []any{"a", "b"}, []string{"a", "b"}},
		{"checkboxes from string", schema.FieldCheckboxes, "a", []string{"a"}},
		{"text from number", schema.FieldText, 12.0, "12"},
		{"file from map", schema.FieldFile, map[string]any{"name": "a.pdf", "size": 10.0, "type": "application/pdf"}, File{Name: "a.pdf", Size: 10, ContentType: "application/pdf"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, Normalize(tc.typ, tc.in)); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", tc.name, diff)
		}
	}

	if !IsEmpty(nil) || !IsEmpty("") || !IsEmpty([]string{}) || !IsEmpty(File{}) {
		t.Fatalf("expected empty values")
	}
	if IsEmpty(" ") || IsEmpty(0.0) || IsEmpty(false) {
		t.Fatalf("expected non-empty values")
	}
}
