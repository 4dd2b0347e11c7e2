package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

// Value is a field value. Canonical shapes are string, float64, bool, File,
// []string and nil.
type Value = any

// File describes an uploaded file. Content is never held by the runtime.
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"type,omitempty"`
}

func (f File) String() string { return f.Name }

// IsEmpty reports whether v counts as "no value" for required checks.
func IsEmpty(v Value) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	case File:
		return typed.Name == "" && typed.Size == 0
	case *File:
		return typed == nil || (typed.Name == "" && typed.Size == 0)
	}
	return false
}

// Normalize coerces a host supplied value into the canonical shape for the
// field type. Unrecognised shapes are returned unchanged.
func Normalize(fieldType schema.FieldType, raw any) Value {
	switch fieldType {
	case schema.FieldCheckboxes:
		return toStringList(raw)
	case schema.FieldNumber:
		switch v := raw.(type) {
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				return ""
			}
			if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return f
			}
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case float32:
			return float64(v)
		}
		return raw
	case schema.FieldFile:
		return toFile(raw)
	case schema.FieldRadio, schema.FieldSelect, schema.FieldText, schema.FieldTextarea,
		schema.FieldEmail, schema.FieldTel, schema.FieldURL, schema.FieldDate,
		schema.FieldTime, schema.FieldDatetime, schema.FieldHidden:
		switch v := raw.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return raw
}

func toStringList(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	}
	return raw
}

func toFile(raw any) Value {
	switch v := raw.(type) {
	case File:
		return v
	case *File:
		if v == nil {
			return nil
		}
		return *v
	case map[string]any:
		f := File{}
		if name, ok := v["name"].(string); ok {
			f.Name = name
		}
		switch size := v["size"].(type) {
		case float64:
			f.Size = int64(size)
		case int:
			f.Size = int64(size)
		case int64:
			f.Size = size
		}
		if ct, ok := v["type"].(string); ok {
			f.ContentType = ct
		}
		return f
	}
	return raw
}

// Clone copies slice values so callers cannot alias store internals.
func Clone(v Value) Value {
	if list, ok := v.([]string); ok {
		return append([]string{}, list...)
	}
	return v
}
