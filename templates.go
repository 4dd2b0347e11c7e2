package formruntime

import (
	"io/fs"

	"github.com/goliatone/go-formruntime/pkg/page"
)

// EmbeddedTemplates exposes the built-in page templates so callers can copy
// or extend them without importing the page package directly.
func EmbeddedTemplates() fs.FS {
	return page.Templates()
}
