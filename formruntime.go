// Package formruntime turns declarative form schemas into live forms: it
// renders them, tracks values, validates input and hands valid submissions
// to a Submitter.
package formruntime

import (
	"context"
	"io"

	theme "github.com/goliatone/go-theme"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/dom"
	"github.com/goliatone/go-formruntime/pkg/importer/openapi"
	"github.com/goliatone/go-formruntime/pkg/page"
	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/runtime"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/submission"
)

// Config aliases runtime.Config so callers can stay on the root package.
type Config = runtime.Config

// Runtime aliases the form runtime.
type Runtime = runtime.Runtime

// Option customises a Runtime.
type Option = runtime.Option

// Schema aliases the form schema model.
type Schema = schema.FormSchema

// Result is what a Submitter reports.
type Result = submission.Result

// SubmitFunc adapts a function to submission.Submitter.
type SubmitFunc = submission.Func

// New constructs a runtime without rendering it.
func New(cfg Config, opts ...Option) (*Runtime, error) {
	return runtime.New(cfg, opts...)
}

// Mount builds a runtime for form inside container and renders it. A nil
// container gets a detached <div id="form-root">.
func Mount(form *Schema, container *html.Node, onSubmit submission.Submitter, opts ...Option) (*Runtime, error) {
	if container == nil {
		container = dom.Element("div", "id", "form-root")
	}
	rt, err := runtime.New(Config{Schema: form, Container: container, OnSubmit: onSubmit}, opts...)
	if err != nil {
		return nil, err
	}
	if err := rt.Render(); err != nil {
		return nil, err
	}
	return rt, nil
}

// Load reads a JSON or YAML schema file.
func Load(path string) (*Schema, error) {
	return schema.LoadFile(path)
}

// Parse decodes a JSON or YAML schema.
func Parse(data []byte) (*Schema, error) {
	return schema.Parse(data)
}

// RenderPage renders form as a standalone HTML document, prefilled with data.
func RenderPage(w io.Writer, form *Schema, data map[string]any, opts ...Option) error {
	rt, err := Mount(form, nil, nil, opts...)
	if err != nil {
		return err
	}
	defer rt.Destroy()
	if len(data) > 0 {
		if err := rt.SetData(data); err != nil {
			return err
		}
	}
	writer, err := page.New()
	if err != nil {
		return err
	}
	return writer.Write(w, page.FromRuntime(rt))
}

// ImportOpenAPI derives a schema from an OpenAPI request body.
func ImportOpenAPI(ctx context.Context, data []byte, opts ...openapi.Option) (*Schema, error) {
	return openapi.Import(ctx, data, opts...)
}

// WithThemes registers extra go-theme manifests next to the built-in ones and
// resolves theme names through them.
func WithThemes(manifests ...*theme.Manifest) (Option, error) {
	selector, err := render.NewManifestSelector(manifests...)
	if err != nil {
		return nil, err
	}
	return runtime.WithThemeSelector(selector), nil
}

// WithThemeSelector resolves theme names through a custom go-theme selector.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return runtime.WithThemeSelector(selector)
}
