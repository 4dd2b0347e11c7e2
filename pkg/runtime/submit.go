package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/submission"
	"github.com/goliatone/go-formruntime/pkg/validation"
)

// Submit validates the whole form and, when valid, hands the snapshot to
// Config.OnSubmit. Only one submission may be outstanding: a second call
// while submitting returns submission.ErrInFlight and the callback is not
// invoked again.
//
// On success the form is replaced by the success message and the runtime
// enters submitted. On failure it returns to idle with the message shown in
// the status region; server field errors in Result.Errors are mapped onto
// the matching fields.
func (r *Runtime) Submit(ctx context.Context) (submission.Result, error) {
	r.mu.Lock()
	switch r.state {
	case StateIdle:
	case StateSubmitting:
		r.mu.Unlock()
		return submission.Result{}, submission.ErrInFlight
	default:
		state := r.state
		r.mu.Unlock()
		return submission.Result{}, notAllowed("submit", state)
	}

	result := r.validateAll()
	if !result.Valid {
		r.announce("Please fix the errors before submitting")
		r.focusFirstInvalid(result.Errors)
		r.mu.Unlock()
		if r.cfg.OnValidationError != nil {
			r.cfg.OnValidationError(result.Errors)
		}
		return submission.Result{}, ErrValidationFailed
	}
	if r.cfg.OnSubmit == nil {
		r.mu.Unlock()
		return submission.Result{}, submission.ErrNoSubmitter
	}

	data := r.snapshot()
	if err := r.transition(StateSubmitting); err != nil {
		r.mu.Unlock()
		return submission.Result{}, err
	}
	r.status = ""
	if r.tree != nil {
		r.tree.ShowStatus("")
	}
	r.paintSubmit()
	r.announce("Submitting form")
	r.mu.Unlock()

	res, err := r.controller.Run(ctx, data, r.cfg.OnSubmit)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateDestroyed {
		return res, err
	}
	if errors.Is(err, submission.ErrInFlight) {
		return res, err
	}
	if err != nil {
		r.failSubmit(res, err)
		return res, err
	}
	r.completeSubmit(res)
	return res, nil
}

// focusFirstInvalid moves to the page of the first failing field and focuses
// it.
func (r *Runtime) focusFirstInvalid(errs []validation.FieldError) {
	if len(errs) == 0 {
		return
	}
	first := errs[0].FieldID
	if ref, ok := r.ref(first); ok && r.form.Settings.MultiPage {
		if page := r.pageOf(ref); page != r.page {
			r.page = page
			if err := r.rebuild(); err != nil {
				r.logger.Warn("rebuild after validation failed", zap.Error(err))
			}
		}
	}
	r.focus(first)
}

func (r *Runtime) failSubmit(res submission.Result, err error) {
	if tErr := r.transition(StateIdle); tErr != nil {
		r.logger.Error("submission transition failed", zap.Error(tErr))
	}
	msg := strings.TrimSpace(res.Message)
	if msg == "" {
		msg = submission.DefaultFailureMessage
	}
	r.status = msg
	if r.tree != nil {
		r.tree.ShowStatus(msg)
	}

	mapped := render.MapErrorPayload(r.form, r.sections.Count, res.Errors)
	first := ""
	for _, ref := range r.refs() {
		if msgs, ok := mapped.Fields[ref.id]; ok && len(msgs) > 0 {
			r.setError(ref.id, msgs[0])
			if first == "" {
				first = ref.id
			}
		}
	}
	if len(mapped.Form) > 0 {
		r.status = strings.Join(append([]string{msg}, mapped.Form...), " ")
		if r.tree != nil {
			r.tree.ShowStatus(r.status)
		}
	}
	r.paintSubmit()
	r.announce(fmt.Sprintf("Error: %s", msg))
	if first != "" {
		r.focus(first)
	}
	r.logger.Warn("submission failed", zap.String("message", msg), zap.Int("field_errors", len(mapped.Fields)), zap.Error(err))
}

func (r *Runtime) completeSubmit(res submission.Result) {
	if err := r.transition(StateSubmitted); err != nil {
		r.logger.Error("submission transition failed", zap.Error(err))
		return
	}
	msg := strings.TrimSpace(res.Message)
	if msg == "" {
		msg = r.form.Settings.SuccessMessage
	}
	if msg == "" {
		msg = defaultSuccessMessage
	}
	if r.tree != nil {
		r.tree.ShowSuccess(msg)
	}
	r.announce(msg)
	r.logger.Info("form submitted", zap.String("id", res.ID))
}
