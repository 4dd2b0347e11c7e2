package runtime

import (
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/submission"
	"github.com/goliatone/go-formruntime/pkg/validation"
	"github.com/goliatone/go-formruntime/pkg/visibility"
)

// Config carries the required inputs of a Runtime.
type Config struct {
	// Schema is the form definition. Required.
	Schema *schema.FormSchema
	// Container is the mount node whose children the runtime owns. Required.
	Container *html.Node
	// Theme names the theme; empty falls back to settings.theme and then to
	// "default".
	Theme string
	// OnSubmit receives the normalized data on a valid submit.
	OnSubmit submission.Submitter
	// OnValidationError receives the ordered failures of a whole-form
	// validation that did not pass.
	OnValidationError func([]validation.FieldError)
}

type options struct {
	logger         *zap.Logger
	registry       *render.Registry
	selector       theme.ThemeSelector
	submitTimeout  time.Duration
	evaluator      visibility.Evaluator
	extras         map[string]any
	sanitizer      render.Sanitizer
	hidden         []render.HiddenField
	labels         render.Labels
	labelsProvided bool
}

// Option customises a Runtime.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry replaces the field type to control mapping.
func WithRegistry(reg *render.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithThemeSelector resolves theme names through a go-theme selector instead
// of the built-in manifests.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *options) {
		o.selector = selector
	}
}

// WithSubmitTimeout bounds each submitter call. No bound by default.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.submitTimeout = d
	}
}

// WithVisibilityEvaluator replaces the evaluator used for
// conditionalDisplay.expression.
func WithVisibilityEvaluator(e visibility.Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithExpressionExtras exposes host values (roles, flags) to display
// expressions under "extras".
func WithExpressionExtras(extras map[string]any) Option {
	return func(o *options) {
		o.extras = extras
	}
}

// WithSanitizer replaces the richtext sanitizer.
func WithSanitizer(s render.Sanitizer) Option {
	return func(o *options) {
		o.sanitizer = s
	}
}

// WithHiddenFields adds host hidden inputs such as CSRF tokens.
func WithHiddenFields(fields ...render.HiddenField) Option {
	return func(o *options) {
		o.hidden = append(o.hidden, fields...)
	}
}

// WithLabels overrides the fixed UI strings.
func WithLabels(labels render.Labels) Option {
	return func(o *options) {
		o.labels = labels
		o.labelsProvided = true
	}
}
