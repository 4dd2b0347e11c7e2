package store

import (
	"fmt"
	"strconv"
	"strings"
)

// InstanceFieldID returns the namespaced id of a field inside a repeatable
// instance: section[index].field.
func InstanceFieldID(section string, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", section, index, field)
}

// InstancePrefix returns the scope prefix for an instance: section[index].
func InstancePrefix(section string, index int) string {
	return fmt.Sprintf("%s[%d]", section, index)
}

// ParseInstanceFieldID splits a namespaced id. ok is false for page-level ids.
func ParseInstanceFieldID(id string) (section string, index int, field string, ok bool) {
	open := strings.IndexByte(id, '[')
	if open <= 0 {
		return "", 0, "", false
	}
	closing := strings.IndexByte(id[open:], ']')
	if closing < 0 {
		return "", 0, "", false
	}
	closing += open
	if closing+1 >= len(id) || id[closing+1] != '.' {
		return "", 0, "", false
	}
	n, err := strconv.Atoi(id[open+1 : closing])
	if err != nil || n < 0 {
		return "", 0, "", false
	}
	field = id[closing+2:]
	if field == "" {
		return "", 0, "", false
	}
	return id[:open], n, field, true
}
