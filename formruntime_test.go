package formruntime

import (
	"bytes"
	"context"
	"io/fs"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formruntime/pkg/testsupport"
)

const feedback = `{
  "formId": "feedback",
  "title": "Feedback",
  "settings": {"theme": "brand"},
  "pages": [{"id": "main", "fields": [
    {"id": "comment", "type": "textarea", "label": "Comment", "required": true}
  ]}]
}`

func TestAssetsFS_Stylesheet(t *testing.T) {
	t.Parallel()

	data, err := fs.ReadFile(AssetsFS(), StylesheetName)
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	for _, class := range []string{".form-field-error", ".form-submit-btn", "var(--form-accent"} {
		if !strings.Contains(string(data), class) {
			t.Fatalf("expected stylesheet to contain %q", class)
		}
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	t.Parallel()

	if _, err := fs.Stat(EmbeddedTemplates(), "templates/page.tpl"); err != nil {
		t.Fatalf("expected page template: %v", err)
	}
}

func TestRenderPage(t *testing.T) {
	t.Parallel()

	form, err := Parse([]byte(feedback))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	withThemes, err := WithThemes(&theme.Manifest{
		Name:    "brand",
		Version:   "1.0.0",
		Templates: map[string]string{"forms.page": "templates/page.tpl"},
		Tokens:    map[string]string{"form-accent": "#ff5500"},
	})
	if err != nil {
		t.Fatalf("themes: %v", err)
	}

	var buf bytes.Buffer
	if err := RenderPage(&buf, form, map[string]any{"comment": "Great"}, withThemes); err != nil {
		t.Fatalf("render page: %v", err)
	}
	testsupport.AssertContains(t, buf.String(), "<title>Feedback</title>", "--form-accent: #ff5500", ">Great</textarea>")
}

func TestMount_Submit(t *testing.T) {
	t.Parallel()

	form, err := Parse([]byte(feedback))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	recorder := testsupport.NewRecorder()
	rt, err := Mount(form, nil, recorder)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := rt.Input("comment", "Nice"); err != nil {
		t.Fatalf("input: %v", err)
	}
	if _, err := rt.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := recorder.Last(); got["comment"] != "Nice" {
		t.Fatalf("unexpected submission %v", got)
	}
}
