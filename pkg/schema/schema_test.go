package schema

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFile_JSON(t *testing.T) {
	t.Parallel()

	form, err := LoadFile("testdata/order.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if form.FormID != "order" {
		t.Fatalf("form id: got %q", form.FormID)
	}
	if len(form.Pages) != 2 {
		t.Fatalf("pages: got %d, want 2", len(form.Pages))
	}
	section, ok := form.Section("contacts")
	if !ok {
		t.Fatalf("expected contacts section")
	}
	if section.Min() != 1 || section.Max() != 2 {
		t.Fatalf("instances: got min=%d max=%d", section.Min(), section.Max())
	}
	if got := form.CalculatedFields[0].Places(); got != 2 {
		t.Fatalf("decimal places: got %d", got)
	}
	if form.PageIndex("items") != 1 {
		t.Fatalf("page index mismatch")
	}

	var ids []string
	for _, field := range form.InputFields() {
		ids = append(ids, field.ID)
	}
	want := []string{"name", "email", "delivery", "address", "qty", "price"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("input fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	form, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	field, ok := form.Field("agree")
	if !ok {
		t.Fatalf("expected agree field")
	}
	if field.Type != FieldCheckboxes || len(field.Options) != 2 {
		t.Fatalf("unexpected field: %+v", field)
	}
	if !form.Pages[0].Fields[0].IsRequired() {
		t.Fatalf("name should be required")
	}
}

func TestSectionDefaults(t *testing.T) {
	t.Parallel()

	var section RepeatableSection
	if section.Min() != 1 {
		t.Fatalf("absent minInstances should default to 1, got %d", section.Min())
	}
	if section.Max() != 0 {
		t.Fatalf("absent maxInstances should be unbounded")
	}
	zero := 0
	section.MinInstances = &zero
	section.MaxInstances = &zero
	if section.Min() != 0 || section.Max() != 0 {
		t.Fatalf("explicit zero: got min=%d max=%d", section.Min(), section.Max())
	}
}

func TestParse_RejectsStructuralProblems(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		doc  string
		want string
	}{
		"no pages": {
			doc:  `{"formId":"x","pages":[]}`,
			want: "pages",
		},
		"unknown type": {
			doc:  `{"formId":"x","pages":[{"id":"p","fields":[{"id":"a","type":"slider"}]}]}`,
			want: "pages/0/fields/0/type",
		},
		"duplicate ids across pages": {
			doc:  `{"formId":"x","pages":[{"id":"p","fields":[{"id":"a","type":"text"}]},{"id":"q","fields":[{"id":"a","type":"text"}]}]}`,
			want: `duplicate field id "a"`,
		},
		"max below min": {
			doc:  `{"formId":"x","pages":[{"id":"p"}],"repeatableSections":[{"id":"s","minInstances":3,"maxInstances":2,"fields":[]}]}`,
			want: "maxInstances 2 is below minInstances 3",
		},
		"bad pattern": {
			doc:  `{"formId":"x","pages":[{"id":"p","fields":[{"id":"a","type":"text","validation":{"pattern":"("}}]}]}`,
			want: "invalid pattern",
		},
		"skip to unknown page": {
			doc:  `{"formId":"x","pages":[{"id":"p","fields":[{"id":"a","type":"text"}]}],"conditionalLogic":{"skipRules":[{"condition":{"field":"a","operator":"equals","value":"1"},"action":{"type":"skipToPage","target":"nope"}}]}}`,
			want: `unknown page "nope"`,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected error")
			}
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected *SchemaError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidate_NilSchema(t *testing.T) {
	t.Parallel()

	var form *FormSchema
	if err := form.Validate(); !errors.Is(err, ErrNilSchema) {
		t.Fatalf("expected ErrNilSchema, got %v", err)
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	t.Parallel()

	raw, err := GenerateJSONSchema()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("generated schema is not JSON: %v", err)
	}
	if doc["$id"] != documentSchemaID {
		t.Fatalf("unexpected $id: %v", doc["$id"])
	}
	if !strings.Contains(string(raw), `"paragraph"`) {
		t.Fatalf("field type enum missing from schema")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	form, err := LoadFile("testdata/order.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	clone, err := form.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	clone.Pages[0].Fields[1].Label = "changed"
	if form.Pages[0].Fields[1].Label == "changed" {
		t.Fatalf("clone shares memory with original")
	}
}
