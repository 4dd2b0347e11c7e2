// Package page wraps a rendered form in a standalone HTML document using
// pongo2 templates. The built-in template carries the theme's CSS custom
// properties so the page works without the host's stylesheet.
package page

import (
	"embed"
	"io"
	"sort"
	"strings"

	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/runtime"
)

// DefaultTemplate is the template name used by Write.
const DefaultTemplate = "templates/page"

//go:embed templates/*.tpl
var embedded embed.FS

// Templates exposes the built-in templates, e.g. for copying into a theme.
func Templates() embed.FS {
	return embedded
}

// Data is the input of a page render.
type Data struct {
	Title       string
	Description string
	Lang        string
	MountID     string
	Stylesheet  string
	// FormHTML is inserted verbatim; it is expected to come from the runtime.
	FormHTML string
	Theme    render.Theme
}

// Writer renders pages with an Engine.
type Writer struct {
	engine   *Engine
	template string
	lang     string
}

// Option configures a Writer.
type Option func(*writerConfig)

type writerConfig struct {
	engineOpts []EngineOption
	template   string
	lang       string
}

// WithTemplateDir overrides the built-in templates from a directory.
func WithTemplateDir(dir string) Option {
	return func(c *writerConfig) {
		c.engineOpts = append(c.engineOpts, WithBaseDir(dir))
	}
}

// WithTemplate selects the template name.
func WithTemplate(name string) Option {
	return func(c *writerConfig) {
		if name = strings.TrimSpace(name); name != "" {
			c.template = name
		}
	}
}

// WithLang sets the default document language.
func WithLang(lang string) Option {
	return func(c *writerConfig) {
		if lang = strings.TrimSpace(lang); lang != "" {
			c.lang = lang
		}
	}
}

// New builds a Writer backed by the embedded templates.
func New(opts ...Option) (*Writer, error) {
	cfg := writerConfig{template: DefaultTemplate, lang: "en"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	engine, err := NewEngine(append(cfg.engineOpts, WithFS(embedded))...)
	if err != nil {
		return nil, err
	}
	return &Writer{engine: engine, template: cfg.template, lang: cfg.lang}, nil
}

// Engine returns the underlying template engine.
func (w *Writer) Engine() *Engine {
	return w.engine
}

// Write renders d to out.
func (w *Writer) Write(out io.Writer, d Data) error {
	lang := d.Lang
	if lang == "" {
		lang = w.lang
	}
	mount := d.MountID
	if mount == "" {
		mount = "form-root"
	}
	return w.engine.Render(out, w.template, map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"lang":        lang,
		"mount_id":    mount,
		"stylesheet":  d.Stylesheet,
		"form":        d.FormHTML,
		"theme_class": d.Theme.Class(),
		"css_vars":    cssVars(d.Theme.CSSVars),
	})
}

// FromRuntime collects page data from a rendered runtime.
func FromRuntime(rt *runtime.Runtime) Data {
	form := rt.Schema()
	title := form.Title
	if title == "" {
		title = form.FormID
	}
	return Data{
		Title:       title,
		Description: form.Description,
		FormHTML:    rt.HTML(),
		Theme:       rt.Theme(),
	}
}

func cssVars(vars map[string]string) []map[string]string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]map[string]string, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]string{"name": name, "value": vars[name]})
	}
	return out
}
