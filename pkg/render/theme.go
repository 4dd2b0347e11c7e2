package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName is the manifest used when no theme is requested.
const DefaultThemeName = "default"

// Theme is the resolved presentation for a form: the container class suffix
// and the CSS custom properties written onto the container.
type Theme struct {
	Name    string
	Variant string
	Tokens  map[string]string
	CSSVars map[string]string
}

// Class returns the container class for the theme, e.g. "theme-dark".
func (t Theme) Class() string {
	name := t.Name
	if t.Variant != "" {
		name = t.Variant
	}
	if name == "" {
		name = DefaultThemeName
	}
	return "theme-" + name
}

// Style renders CSSVars as a deterministic inline style declaration.
func (t Theme) Style() string {
	if len(t.CSSVars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(t.CSSVars))
	for k := range t.CSSVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+t.CSSVars[k])
	}
	return strings.Join(parts, "; ")
}

// RendererConfig converts the theme into the go-theme renderer payload so
// template based hosts can share the same tokens.
func (t Theme) RendererConfig() *theme.RendererConfig {
	return &theme.RendererConfig{
		Theme:   t.Name,
		Variant: t.Variant,
		Tokens:  copyStrings(t.Tokens),
		CSSVars: copyStrings(t.CSSVars),
	}
}

func builtinManifests() []*theme.Manifest {
	return []*theme.Manifest{{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Templates: map[string]string{
			"forms.page": "templates/page.tpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/formruntime",
			Files: map[string]string{
				"stylesheet": "form-runtime.css",
			},
		},
		Tokens: map[string]string{
			"form-bg":          "#ffffff",
			"form-fg":          "#1f2933",
			"form-border":      "#cbd2d9",
			"form-accent":      "#2563eb",
			"form-error":       "#b91c1c",
			"form-success":     "#15803d",
			"form-radius":      "6px",
			"form-font-family": "system-ui, sans-serif",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"form-bg":      "#111827",
					"form-fg":      "#f9fafb",
					"form-border":  "#374151",
					"form-accent":  "#60a5fa",
					"form-error":   "#f87171",
					"form-success": "#4ade80",
				},
			},
		},
	}}
}

type manifestRegistry interface {
	Register(*theme.Manifest) error
}

// ManifestSelector implements theme.ThemeSelector over a set of manifests.
// A requested name that matches a variant of the default manifest selects
// that variant, so "dark" resolves to default/dark.
type ManifestSelector struct {
	mu        sync.RWMutex
	registry  manifestRegistry
	manifests map[string]*theme.Manifest
}

// NewManifestSelector registers the built-in manifests plus any extras.
func NewManifestSelector(extra ...*theme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{
		registry:  theme.NewRegistry(),
		manifests: make(map[string]*theme.Manifest),
	}
	for _, m := range append(builtinManifests(), extra...) {
		if err := s.Register(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a manifest. Duplicate or invalid manifests are rejected by the
// underlying go-theme registry.
func (s *ManifestSelector) Register(m *theme.Manifest) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("render: theme manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.Register(m); err != nil {
		return fmt.Errorf("render: register theme %q: %w", m.Name, err)
	}
	s.manifests[m.Name] = m
	return nil
}

// Select implements theme.ThemeSelector.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		name = DefaultThemeName
	}
	if m, ok := s.manifests[name]; ok {
		if variant != "" {
			if _, ok := m.Variants[variant]; !ok {
				return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
			}
		}
		return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
	}
	if base, ok := s.manifests[DefaultThemeName]; ok {
		if _, ok := base.Variants[name]; ok {
			return &theme.Selection{Theme: DefaultThemeName, Variant: name, Manifest: base}, nil
		}
	}
	return nil, fmt.Errorf("render: theme %q not found", name)
}

var (
	defaultSelectorOnce sync.Once
	defaultSelector     *ManifestSelector
)

// DefaultThemeSelector returns the shared selector holding the built-in
// manifests.
func DefaultThemeSelector() theme.ThemeSelector {
	defaultSelectorOnce.Do(func() {
		sel, err := NewManifestSelector()
		if err != nil {
			panic(err)
		}
		defaultSelector = sel
	})
	return defaultSelector
}

// ResolveTheme selects a theme and merges custom style overrides on top of
// its tokens. Unknown themes fall back to the default manifest and the error
// is returned alongside the usable fallback.
func ResolveTheme(selector theme.ThemeSelector, name string, custom map[string]string) (Theme, error) {
	if selector == nil {
		selector = DefaultThemeSelector()
	}
	var resolveErr error
	selection, err := selector.Select(name, "")
	if err != nil || selection == nil || selection.Manifest == nil {
		resolveErr = err
		if resolveErr == nil {
			resolveErr = fmt.Errorf("render: theme %q not found", name)
		}
		selection, err = DefaultThemeSelector().Select(DefaultThemeName, "")
		if err != nil {
			return Theme{}, err
		}
	}

	tokens := copyStrings(selection.Manifest.Tokens)
	if selection.Variant != "" {
		for k, v := range selection.Manifest.Variants[selection.Variant].Tokens {
			tokens[k] = v
		}
	}

	out := Theme{
		Name:    selection.Theme,
		Variant: selection.Variant,
		Tokens:  tokens,
		CSSVars: make(map[string]string, len(tokens)+len(custom)),
	}
	for k, v := range tokens {
		out.CSSVars[cssVarName(k)] = v
	}
	for k, v := range custom {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out.CSSVars[cssVarName(k)] = v
	}
	return out, resolveErr
}

func cssVarName(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "--") {
		return key
	}
	return "--" + key
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
