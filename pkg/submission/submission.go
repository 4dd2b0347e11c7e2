// Package submission defines the submit callback contract and the controller
// that guards a single outstanding submission.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultFailureMessage is shown when a submitter fails without a message.
const DefaultFailureMessage = "Submission failed"

var (
	// ErrInFlight is returned when a submission is already awaiting its result.
	ErrInFlight = errors.New("submission: a submission is already in progress")
	// ErrNoSubmitter is returned when Run is called without a submitter.
	ErrNoSubmitter = errors.New("submission: submitter is required")
)

// Result is what a submitter reports back. Errors optionally carries server
// side field messages keyed by path (see render.MapErrorPayload).
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	ID      string              `json:"id,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Submitter receives the normalized form data. Connectors (webhook, CSV,
// proxies) and host callbacks satisfy it; the runtime inspects only Result.
type Submitter interface {
	Submit(ctx context.Context, data map[string]any) (Result, error)
}

// Func adapts a function into a Submitter.
type Func func(ctx context.Context, data map[string]any) (Result, error)

// Submit calls fn.
func (fn Func) Submit(ctx context.Context, data map[string]any) (Result, error) {
	return fn(ctx, data)
}

// SubmissionError reports a failed submission. The message is safe to show to
// the user.
type SubmissionError struct {
	Message string
	Result  Result
	Err     error
}

func (e *SubmissionError) Error() string {
	if e == nil {
		return ""
	}
	return "submission: " + e.Message
}

func (e *SubmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Controller runs submitters with a single-flight guard and an optional
// timeout.
type Controller struct {
	timeout  time.Duration
	inFlight atomic.Bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithTimeout bounds each submission. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewController constructs a Controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// InFlight reports whether a submission is awaiting its result.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// Run invokes submitter once with data. A concurrent call while another is
// outstanding returns ErrInFlight without invoking the submitter. An error
// from the submitter is treated as an unsuccessful result carrying the error
// text. Failures are returned as *SubmissionError alongside the result.
func (c *Controller) Run(ctx context.Context, data map[string]any, submitter Submitter) (Result, error) {
	if submitter == nil {
		return Result{}, ErrNoSubmitter
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer c.inFlight.Store(false)

	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := submitter.Submit(ctx, data)
	if err != nil {
		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = DefaultFailureMessage
		}
		failed := Result{Success: false, Message: msg, Errors: result.Errors}
		return failed, &SubmissionError{Message: msg, Result: failed, Err: err}
	}
	if !result.Success {
		msg := strings.TrimSpace(result.Message)
		if msg == "" {
			msg = DefaultFailureMessage
			result.Message = msg
		}
		return result, &SubmissionError{Message: msg, Result: result}
	}
	return result, nil
}

// Describe renders a result for logs and terminal output.
func Describe(r Result) string {
	status := "failed"
	if r.Success {
		status = "ok"
	}
	if r.ID != "" {
		return fmt.Sprintf("%s (%s): %s", status, r.ID, r.Message)
	}
	return fmt.Sprintf("%s: %s", status, r.Message)
}
