package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Engine loads and executes pongo2 templates from a base directory, an fs.FS,
// or both. Parsed templates are cached by path.
type Engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
}

type engineConfig struct {
	baseDir string
	files   []fs.FS
	ext     string
	globals pongo2.Context
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithBaseDir loads templates from a directory on disk. It takes precedence
// over embedded templates with the same path.
func WithBaseDir(dir string) EngineOption {
	return func(cfg *engineConfig) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS adds an fs.FS template source.
func WithFS(files fs.FS) EngineOption {
	return func(cfg *engineConfig) {
		if files != nil {
			cfg.files = append(cfg.files, files)
		}
	}
}

// WithExtension sets the suffix appended to template names that lack one.
func WithExtension(ext string) EngineOption {
	return func(cfg *engineConfig) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.ext = ext
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(values map[string]any) EngineOption {
	return func(cfg *engineConfig) {
		for k, v := range values {
			if k = strings.TrimSpace(k); k != "" {
				cfg.globals[k] = v
			}
		}
	}
}

// NewEngine builds an Engine. At least one template source is required.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	cfg := &engineConfig{ext: ".tpl", globals: pongo2.Context{}}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("page: template dir: %w", err)
		}
		loaders = append(loaders, loader)
	}
	for _, files := range cfg.files {
		loaders = append(loaders, pongo2.NewFSLoader(files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("page: a template directory or fs.FS is required")
	}

	set := pongo2.NewSet("formruntime", loaders...)
	if set.Globals == nil {
		set.Globals = pongo2.Context{}
	}
	set.Globals.Update(cfg.globals)
	registerFilters()

	return &Engine{
		set:       set,
		templates: make(map[string]*pongo2.Template),
		ext:       cfg.ext,
	}, nil
}

// Render executes the named template with data and writes the result to w.
func (e *Engine) Render(w io.Writer, name string, data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("page: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	tmpl, err := e.template(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return fmt.Errorf("page: execute %q: %w", path, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// RenderString executes an inline template.
func (e *Engine) RenderString(src string, data map[string]any) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("page: engine is nil")
	}
	tmpl, err := e.set.FromString(src)
	if err != nil {
		return "", fmt.Errorf("page: parse inline template: %w", err)
	}
	out, err := tmpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("page: execute inline template: %w", err)
	}
	return out, nil
}

// RegisterFilter exposes fn to templates under name. Filters are global to
// pongo2, so an existing name is an error.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("page: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("page: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var p any
		if param != nil {
			p = param.Interface()
		}
		out, err := fn(in.Interface(), p)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	})
}

func (e *Engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("page: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

var filtersOnce sync.Once

func registerFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.TrimSpace(in.String())), nil
			})
		}
	})
}
