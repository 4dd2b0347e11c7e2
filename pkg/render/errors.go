package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
)

// ErrorMapping splits a server error payload into messages keyed by
// namespaced field id and messages that belong to the form as a whole.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// First returns the first message for every field, the shape the runtime
// stores inline.
func (m ErrorMapping) First() map[string]string {
	out := make(map[string]string, len(m.Fields))
	for id, messages := range m.Fields {
		if len(messages) > 0 {
			out[id] = messages[0]
		}
	}
	return out
}

// MapErrorPayload resolves error paths such as "/contacts/1/email",
// "body.name" or "contacts[1].email" to the runtime's field ids. Paths that do
// not name a known field, or name an instance that does not exist, are kept
// as form-level messages.
func MapErrorPayload(form *schema.FormSchema, counts func(section string) int, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{}
	if len(payload) == 0 {
		return mapping
	}

	for raw, messages := range payload {
		messages = cleanMessages(messages)
		if len(messages) == 0 {
			continue
		}
		id, ok := resolveErrorPath(form, counts, raw)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[id] = append(mapping.Fields[id], messages...)
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

func resolveErrorPath(form *schema.FormSchema, counts func(string) int, raw string) (string, bool) {
	if form == nil || isFormLevelKey(raw) {
		return "", false
	}
	segments := splitErrorPath(raw)
	for len(segments) > 0 && isWrapperSegment(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "", false
	}

	if section, ok := form.Section(segments[0]); ok {
		if len(segments) < 3 {
			return "", false
		}
		index, err := strconv.Atoi(segments[1])
		if err != nil || index < 0 {
			return "", false
		}
		if counts != nil && index >= counts(section.ID) {
			return "", false
		}
		if _, ok := section.Field(segments[2]); !ok {
			return "", false
		}
		return store.InstanceFieldID(section.ID, index, segments[2]), true
	}

	if field, ok := form.Field(segments[0]); ok && field.Type.IsInput() {
		return field.ID, true
	}
	return "", false
}

func splitErrorPath(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })

	out := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// JSON pointer escapes
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func isWrapperSegment(segment string) bool {
	switch strings.ToLower(segment) {
	case "body", "request", "payload", "data", "attributes", "fields":
		return true
	}
	return false
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	}
	return false
}

func cleanMessages(messages []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if _, dup := seen[message]; dup {
			continue
		}
		seen[message] = struct{}{}
		out = append(out, message)
	}
	return out
}
