package page

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/testsupport"
)

func TestWrite_FromRuntime(t *testing.T) {
	t.Parallel()

	form := &schema.FormSchema{
		FormID:      "contact",
		Title:       "Contact us",
		Description: "We reply within a day.",
		Settings:    schema.Settings{Theme: "dark"},
		Pages: []schema.Page{{ID: "main", Fields: []schema.Field{
			{ID: "name", Type: schema.FieldText, Label: "Name"},
		}}},
	}
	rt := testsupport.Mount(t, form, nil)

	w, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	data := FromRuntime(rt)
	data.Stylesheet = "/assets/formruntime/form-runtime.css"
	if err := w.Write(&buf, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	testsupport.AssertContains(t, out,
		"<title>Contact us</title>",
		`<html lang="en">`,
		`class="form-runtime theme-dark"`,
		"--form-bg: #111827;",
		`href="/assets/formruntime/form-runtime.css"`,
		`data-field-id="name"`,
		"We reply within a day.",
	)
	if strings.Contains(out, "&lt;form") {
		t.Fatalf("form markup must not be escaped")
	}
}

func TestWrite_MultiPageFixture(t *testing.T) {
	t.Parallel()

	form := testsupport.LoadSchema(t, "../schema/testdata/order.json")
	rt := testsupport.Mount(t, form, nil)
	if err := rt.SetData(map[string]any{"name": "Ada", "qty": 2}); err != nil {
		t.Fatalf("set data: %v", err)
	}

	w, err := New(WithLang("de"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, FromRuntime(rt)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	testsupport.AssertContains(t, out, "<title>Order form</title>", `<html lang="de">`, `data-field-id="name"`, `value="Ada"`)
	if strings.Contains(out, `data-field-id="qty"`) {
		t.Fatalf("only the active page should be rendered:\n%s", out)
	}
}

func TestWrite_TemplateOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "custom"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "custom", "bare.tpl"), []byte(`{{ title }}|{{ theme_class }}`), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	w, err := New(WithTemplateDir(dir), WithTemplate("custom/bare"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, Data{Title: "Hi", Theme: render.Theme{Name: "default"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "Hi|theme-default" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestEngine_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(); err == nil {
		t.Fatalf("expected an error without template sources")
	}
	engine, err := NewEngine(WithFS(Templates()))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if err := engine.Render(&bytes.Buffer{}, "templates/missing", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
	got, err := engine.RenderString(`{{ name|trim }}!`, map[string]any{"name": "  Ada "})
	if err != nil || got != "Ada!" {
		t.Fatalf("render string: %q, %v", got, err)
	}
	if err := engine.RegisterFilter("trim", func(in, _ any) (any, error) { return in, nil }); err == nil {
		t.Fatalf("duplicate filter should be rejected")
	}
}
