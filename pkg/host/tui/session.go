// Package tui drives a form runtime from the terminal: it prompts for every
// visible field of the active page, feeds answers back as input events and
// reports validation and submission outcomes.
package tui

import (
	"context"
	"errors"
	"fmt"
	"html"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/render"
	"github.com/goliatone/go-formruntime/pkg/runtime"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/submission"
	"github.com/goliatone/go-formruntime/pkg/visibility"
)

// Session is one interactive fill of a rendered runtime.
type Session struct {
	rt       *runtime.Runtime
	driver   PromptDriver
	logger   *zap.Logger
	retries  int
	plain    render.Sanitizer
	answered map[string]bool
}

// Option configures a Session.
type Option func(*Session)

// WithDriver replaces the survey driver.
func WithDriver(d PromptDriver) Option {
	return func(s *Session) {
		if d != nil {
			s.driver = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRetries bounds how many failed submissions the user may retry.
func WithMaxRetries(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// New builds a session for a runtime that has already been rendered.
func New(rt *runtime.Runtime, opts ...Option) *Session {
	s := &Session{
		rt:       rt,
		driver:   NewSurveyDriver(nil),
		logger:   zap.NewNop(),
		retries:  3,
		plain:    render.StrictSanitizer(),
		answered: make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run prompts until the form is submitted, the user declines to retry a
// failed submission, or ctx is done.
func (s *Session) Run(ctx context.Context) (submission.Result, error) {
	form := s.rt.Schema()
	if title := strings.TrimSpace(form.Title); title != "" {
		if err := s.driver.Info(ctx, titleStyle.Render(title)); err != nil {
			return submission.Result{}, err
		}
	}

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return submission.Result{}, err
		}

		moved, err := s.fillPage(ctx)
		if err != nil {
			return submission.Result{}, err
		}
		if moved {
			continue
		}

		if form.Settings.MultiPage && s.rt.CurrentPageIndex() < len(form.Pages)-1 {
			err := s.rt.Next()
			switch {
			case errors.Is(err, runtime.ErrValidationFailed):
				if err := s.reportErrors(ctx); err != nil {
					return submission.Result{}, err
				}
			case err != nil:
				return submission.Result{}, err
			}
			continue
		}

		if err := s.fillSections(ctx); err != nil {
			return submission.Result{}, err
		}

		res, err := s.rt.Submit(ctx)
		var subErr *submission.SubmissionError
		switch {
		case err == nil:
			s.logger.Info("form submitted", zap.String("id", res.ID))
			msg := res.Message
			if notes := s.rt.Announcements(); len(notes) > 0 {
				msg = notes[len(notes)-1]
			}
			return res, s.driver.Info(ctx, successStyle.Render(glyphSuccess+" "+msg))
		case errors.Is(err, runtime.ErrValidationFailed):
			if err := s.reportErrors(ctx); err != nil {
				return submission.Result{}, err
			}
		case errors.As(err, &subErr):
			failures++
			if err := s.driver.Info(ctx, errorStyle.Render(glyphError+" "+subErr.Message)); err != nil {
				return res, err
			}
			if failures > s.retries {
				return res, err
			}
			retry, askErr := s.driver.Confirm(ctx, ConfirmConfig{Message: "Retry submission?", Default: true})
			if askErr != nil {
				return res, askErr
			}
			if !retry {
				return res, err
			}
			s.rt.DismissStatus()
		default:
			return res, err
		}
	}
}

// fillPage prompts for the unanswered page-level fields of the active page.
// It reports true when an answer moved the runtime to another page.
func (s *Session) fillPage(ctx context.Context) (bool, error) {
	form := s.rt.Schema()
	index := s.rt.CurrentPageIndex()
	page := form.Pages[index]
	if form.Settings.MultiPage {
		title := page.Title
		if title == "" {
			title = page.ID
		}
		if err := s.driver.Info(ctx, pageStyle.Render(fmt.Sprintf("%s %s (%d/%d)", glyphPage, title, index+1, len(form.Pages)))); err != nil {
			return false, err
		}
	}

	for _, id := range s.rt.RenderedFields() {
		if _, _, _, instance := store.ParseInstanceFieldID(id); instance {
			continue
		}
		if err := s.ask(ctx, id); err != nil {
			return false, err
		}
		if s.rt.CurrentPageIndex() != index {
			return true, nil
		}
	}
	return false, nil
}

// fillSections prompts for every instance of every repeatable section and
// offers to add instances until the section is full or the user declines.
func (s *Session) fillSections(ctx context.Context) error {
	for _, section := range s.rt.Schema().RepeatableSections {
		title := section.Title
		if title == "" {
			title = section.ID
		}
		for i := 0; ; i++ {
			if i >= s.rt.InstanceCount(section.ID) {
				if !s.rt.CanAddInstance(section.ID) {
					break
				}
				add, err := s.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add another %s?", title)})
				if err != nil {
					return err
				}
				if !add {
					break
				}
				if _, err := s.rt.AddInstance(section.ID); err != nil {
					return err
				}
			}
			for _, field := range section.Fields {
				if err := s.ask(ctx, store.InstanceFieldID(section.ID, i, field.ID)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ask prompts for one field until the runtime accepts the answer.
func (s *Session) ask(ctx context.Context, id string) error {
	if s.answered[id] || !s.rt.Visible(id) || s.rt.Disabled(id) {
		return nil
	}
	field, ok := s.rt.Field(id)
	if !ok {
		return nil
	}
	if field.Type.IsDisplayOnly() {
		s.answered[id] = true
		if text := s.displayText(field); text != "" {
			return s.driver.Info(ctx, text)
		}
		return nil
	}
	if field.Type == schema.FieldHidden {
		return nil
	}

	for {
		current, _ := s.rt.Value(id)
		value, err := s.prompt(ctx, field, current)
		if err != nil {
			return err
		}
		if err := s.rt.Input(id, value); err != nil {
			return err
		}
		msg := s.rt.Error(id)
		if msg == "" {
			s.answered[id] = true
			return nil
		}
		if err := s.driver.Info(ctx, errorStyle.Render(glyphError+" "+msg)); err != nil {
			return err
		}
	}
}

func (s *Session) prompt(ctx context.Context, field schema.Field, current any) (any, error) {
	message := field.DisplayLabel()
	if field.IsRequired() {
		message += " *"
	}
	help := field.HelpText

	switch field.Type {
	case schema.FieldSelect, schema.FieldRadio:
		labels, values := options(field)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message: message,
			Options: labels,
			Default: indexOf(values, visibility.Stringify(current)),
			Help:    help,
		})
		if err != nil || idx < 0 {
			return "", err
		}
		return values[idx], nil
	case schema.FieldCheckboxes:
		labels, values := options(field)
		var defaults []int
		if list, ok := current.([]string); ok {
			for _, v := range list {
				if i := indexOf(values, v); i >= 0 {
					defaults = append(defaults, i)
				}
			}
		}
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Defaults: defaults, Help: help})
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(picked))
		for _, i := range picked {
			if i >= 0 && i < len(values) {
				out = append(out, values[i])
			}
		}
		return out, nil
	case schema.FieldTextarea:
		return s.driver.TextArea(ctx, InputConfig{Message: message, Default: visibility.Stringify(current), Help: help})
	case schema.FieldFile:
		path, err := s.driver.Input(ctx, InputConfig{Message: message + " (path)", Help: help})
		if err != nil || strings.TrimSpace(path) == "" {
			return nil, err
		}
		return describeFile(path)
	default:
		return s.driver.Input(ctx, InputConfig{Message: message, Default: visibility.Stringify(current), Help: help})
	}
}

func (s *Session) displayText(field schema.Field) string {
	switch field.Type {
	case schema.FieldHeader:
		return titleStyle.Render(field.Label)
	case schema.FieldRichtext:
		return helpStyle.Render(strings.TrimSpace(html.UnescapeString(s.plain(visibility.Stringify(field.DefaultValue)))))
	default:
		text := field.Label
		if text == "" {
			text = visibility.Stringify(field.DefaultValue)
		}
		return helpStyle.Render(text)
	}
}

func (s *Session) reportErrors(ctx context.Context) error {
	for _, fe := range s.rt.Errors() {
		delete(s.answered, fe.FieldID)
		if err := s.driver.Info(ctx, errorStyle.Render(fmt.Sprintf("%s %s: %s", glyphError, fe.FieldID, fe.Message))); err != nil {
			return err
		}
	}
	return nil
}

func options(field schema.Field) (labels, values []string) {
	for _, opt := range field.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		values = append(values, opt.Value)
	}
	return labels, values
}

func describeFile(path string) (store.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return store.File{}, fmt.Errorf("tui: %w", err)
	}
	return store.File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}
