package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans author supplied markup before it is parsed into the tree.
type Sanitizer func(markup string) string

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy
)

// DefaultSanitizer applies the bluemonday user generated content policy. The
// policy is built once and shared; bluemonday policies are safe for
// concurrent use once configured.
func DefaultSanitizer() Sanitizer {
	ugcOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy.Sanitize
}

// StrictSanitizer strips every tag and keeps only text.
func StrictSanitizer() Sanitizer {
	return bluemonday.StrictPolicy().Sanitize
}
