package render

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/dom"
)

// HiddenField is a host supplied hidden input emitted at the top of the form,
// outside the schema. Typical uses are CSRF tokens and schema versions.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden builds a HiddenField from an arbitrary value.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken carries a CSRF token under the backend's expected input name.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// normalizeHidden drops unnamed entries, lets later entries win on name
// collisions and sorts by name.
func normalizeHidden(fields []HiddenField) []HiddenField {
	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		byName[name] = f.Value
	}
	if len(byName) == 0 {
		return nil
	}
	out := make([]HiddenField, 0, len(byName))
	for name, value := range byName {
		out = append(out, HiddenField{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func hiddenInputs(fields []HiddenField) []*html.Node {
	var nodes []*html.Node
	for _, f := range normalizeHidden(fields) {
		nodes = append(nodes, dom.Element("input",
			"type", "hidden",
			"name", f.Name,
			"value", f.Value,
			"data-host-hidden", "true",
		))
	}
	return nodes
}
