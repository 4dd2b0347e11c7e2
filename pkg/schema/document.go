package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document wraps a raw schema payload, normalised to JSON, and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument accepts JSON or YAML bytes. YAML input is converted to JSON so
// later phases only deal with one encoding.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Document{}, fmt.Errorf("schema: document %s is empty", src.Location())
	}

	if json.Valid(trimmed) {
		return Document{source: src, raw: append([]byte(nil), trimmed...)}, nil
	}

	var generic any
	if err := yaml.Unmarshal(trimmed, &generic); err != nil {
		return Document{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", src.Location(), err)
	}
	converted, err := json.Marshal(generic)
	if err != nil {
		return Document{}, fmt.Errorf("schema: convert %s to JSON: %w", src.Location(), err)
	}
	return Document{source: src, raw: converted}, nil
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// JSON returns a copy of the JSON payload.
func (d Document) JSON() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}
