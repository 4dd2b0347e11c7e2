package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current lifecycle state.
	ErrInvalidTransition = errors.New("runtime: invalid state transition")
	// ErrBusy is returned for structural operations while a submission is in
	// flight.
	ErrBusy = errors.New("runtime: submission in progress")
	// ErrValidationFailed is returned by Submit and Next when validation
	// blocks the action. Field messages are available through Errors.
	ErrValidationFailed = errors.New("runtime: validation failed")
	// ErrUnknownField is returned for events naming a field that is not part
	// of the form.
	ErrUnknownField = errors.New("runtime: unknown field")
	// ErrUnknownPage is returned by GoToPage for an unknown page id.
	ErrUnknownPage = errors.New("runtime: unknown page")
	// ErrUnknownSection is returned for instance operations on an unknown
	// repeatable section.
	ErrUnknownSection = errors.New("runtime: unknown repeatable section")
	// ErrFieldDisabled is returned when an input event targets a field
	// disabled by a skip rule.
	ErrFieldDisabled = errors.New("runtime: field is disabled")
)

// ConfigError reports a missing or invalid construction option. It is fatal:
// New returns it and no runtime is created.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("runtime: config %s: %s", e.Field, e.Message)
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}
