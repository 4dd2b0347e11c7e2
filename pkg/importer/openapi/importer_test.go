package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

const petstore = `
openapi: 3.0.3
info:
  title: Pet store
  version: "1.0"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
    post:
      operationId: createPet
      summary: Register a pet
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [name, ownerEmail]
              x-form-order: [name, species]
              properties:
                name:
                  type: string
                  minLength: 2
                  maxLength: 40
                species:
                  type: string
                  enum: [cat, dog]
                ownerEmail:
                  type: string
                  format: email
                  description: We send the certificate here
                birthDate:
                  type: string
                  format: date
                weight:
                  type: number
                  minimum: 0
                vaccinated:
                  type: boolean
                notes:
                  type: string
                  maxLength: 2000
                tags:
                  type: array
                  items:
                    type: string
                    enum: [indoor, outdoor]
                id:
                  type: string
                  readOnly: true
                visits:
                  type: array
                  minItems: 1
                  maxItems: 3
                  items:
                    type: object
                    required: [clinic]
                    properties:
                      clinic:
                        type: string
                      visitedAt:
                        type: string
                        format: date-time
      responses:
        "201":
          description: created
`

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestImport_Petstore(t *testing.T) {
	t.Parallel()

	form, err := Import(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if form.FormID != "createPet" || form.Title != "Register a pet" {
		t.Fatalf("unexpected form header: %q %q", form.FormID, form.Title)
	}

	want := []schema.Field{
		{ID: "name", Type: schema.FieldText, Label: "Name", Required: true, Validation: &schema.Validation{MinLength: intPtr(2), MaxLength: intPtr(40)}},
		{ID: "species", Type: schema.FieldSelect, Label: "Species", Options: []schema.Option{{Value: "cat", Label: "Cat"}, {Value: "dog", Label: "Dog"}}},
		{ID: "birthDate", Type: schema.FieldDate, Label: "Birth date"},
		{ID: "notes", Type: schema.FieldTextarea, Label: "Notes", Validation: &schema.Validation{MaxLength: intPtr(2000)}},
		{ID: "ownerEmail", Type: schema.FieldEmail, Label: "Owner email", Required: true, HelpText: "We send the certificate here"},
		{ID: "tags", Type: schema.FieldCheckboxes, Label: "Tags", Options: []schema.Option{{Value: "indoor", Label: "Indoor"}, {Value: "outdoor", Label: "Outdoor"}}},
		{ID: "vaccinated", Type: schema.FieldRadio, Label: "Vaccinated", Options: []schema.Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}},
		{ID: "weight", Type: schema.FieldNumber, Label: "Weight", Validation: &schema.Validation{Min: floatPtr(0)}},
	}
	if diff := cmp.Diff(want, form.Pages[0].Fields); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}

	wantSections := []schema.RepeatableSection{{
		ID:           "visits",
		Title:        "Visits",
		MinInstances: intPtr(1),
		MaxInstances: intPtr(3),
		Fields: []schema.Field{
			{ID: "clinic", Type: schema.FieldText, Label: "Clinic", Required: true},
			{ID: "visitedAt", Type: schema.FieldDatetime, Label: "Visited at"},
		},
	}}
	if diff := cmp.Diff(wantSections, form.RepeatableSections); diff != "" {
		t.Fatalf("sections (-want +got):\n%s", diff)
	}
}

func TestImport_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
		opts []Option
		want error
	}{
		{name: "unknown operation", data: petstore, opts: []Option{WithOperation("deletePet")}, want: ErrOperationNotFound},
		{name: "operation without body", data: petstore, opts: []Option{WithOperation("listPets")}, want: ErrNotObject},
		{name: "no request bodies", data: `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /ping:
    get:
      responses:
        "200": {description: ok}
`, want: ErrNoOperation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Import(context.Background(), []byte(tc.data), tc.opts...)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := Import(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestHumanize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ownerEmail": "Owner email",
		"first_name": "First name",
		"ID":         "Id",
		"zip-code":   "Zip code",
	}
	for in, want := range cases {
		if got := humanize(in); got != want {
			t.Fatalf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
