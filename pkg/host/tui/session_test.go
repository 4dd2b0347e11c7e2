package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formruntime/pkg/runtime"
	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/submission"
	"github.com/goliatone/go-formruntime/pkg/testsupport"
)

type scriptedDriver struct {
	inputs   []string
	selects  []int
	multis   [][]int
	confirms []bool
	prompts  []string
	infos    []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.prompts = append(d.prompts, cfg.Message)
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) TextArea(ctx context.Context, cfg InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.prompts = append(d.prompts, cfg.Message)
	if len(d.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.prompts = append(d.prompts, cfg.Message)
	if len(d.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	d.prompts = append(d.prompts, cfg.Message)
	if len(d.multis) == 0 {
		return nil, errors.New("no multiselect scripted")
	}
	v := d.multis[0]
	d.multis = d.multis[1:]
	return v, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func (d *scriptedDriver) saw(fragment string) bool {
	for _, info := range d.infos {
		if strings.Contains(info, fragment) {
			return true
		}
	}
	return false
}

func intPtr(v int) *int { return &v }

func TestSession_FillsAndSubmits(t *testing.T) {
	t.Parallel()

	form := &schema.FormSchema{
		FormID: "signup",
		Title:  "Sign up",
		Pages: []schema.Page{{
			ID: "main",
			Fields: []schema.Field{
				{ID: "intro", Type: schema.FieldParagraph, Label: "Tell us about you"},
				{ID: "name", Type: schema.FieldText, Label: "Name", Required: true},
				{ID: "color", Type: schema.FieldSelect, Label: "Color", Options: []schema.Option{
					{Value: "red", Label: "Red"}, {Value: "blue", Label: "Blue"},
				}},
				{ID: "tags", Type: schema.FieldCheckboxes, Label: "Tags", Options: []schema.Option{
					{Value: "a"}, {Value: "b"},
				}},
			},
		}},
		RepeatableSections: []schema.RepeatableSection{{
			ID:           "contacts",
			Title:        "Contact",
			MinInstances: intPtr(1),
			MaxInstances: intPtr(2),
			Fields:       []schema.Field{{ID: "email", Type: schema.FieldText, Label: "Email"}},
		}},
	}

	recorder := testsupport.NewRecorder(testsupport.Reply{Result: submission.Result{Success: true, Message: "Welcome aboard"}})
	rt := testsupport.Mount(t, form, recorder)

	driver := &scriptedDriver{
		inputs:   []string{"", "Ada", "a@x.io", "b@x.io"},
		selects:  []int{1},
		multis:   [][]int{{0}},
		confirms: []bool{true},
	}
	res, err := New(rt, WithDriver(driver)).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	want := map[string]any{
		"name":  "Ada",
		"color": "blue",
		"tags":  []string{"a"},
		"contacts": []map[string]any{
			{"email": "a@x.io"},
			{"email": "b@x.io"},
		},
	}
	if diff := cmp.Diff(want, recorder.Last()); diff != "" {
		t.Fatalf("submitted data (-want +got):\n%s", diff)
	}

	wantPrompts := []string{"Name *", "Name *", "Color", "Tags", "Email", "Add another Contact?", "Email"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompts (-want +got):\n%s", diff)
	}
	for _, fragment := range []string{"Sign up", "Tell us about you", glyphError + " Name is required", glyphSuccess + " Welcome aboard"} {
		if !driver.saw(fragment) {
			t.Fatalf("expected %q in output %q", fragment, driver.infos)
		}
	}
	if rt.State() != runtime.StateSubmitted {
		t.Fatalf("expected submitted state, got %s", rt.State())
	}
}

func TestSession_RetriesFailedSubmission(t *testing.T) {
	t.Parallel()

	form := &schema.FormSchema{
		FormID: "retry",
		Pages:  []schema.Page{{ID: "main", Fields: []schema.Field{{ID: "name", Type: schema.FieldText, Label: "Name"}}}},
	}
	recorder := testsupport.NewRecorder(testsupport.Reply{Result: submission.Result{Success: false, Message: "Server down"}})
	rt := testsupport.Mount(t, form, recorder)

	driver := &scriptedDriver{inputs: []string{"Ada"}, confirms: []bool{true}}
	res, err := New(rt, WithDriver(driver)).Run(context.Background())
	if err != nil || !res.Success {
		t.Fatalf("run: %+v, %v", res, err)
	}
	if recorder.Calls() != 2 {
		t.Fatalf("expected two submissions, got %d", recorder.Calls())
	}
	if !driver.saw(glyphError + " Server down") {
		t.Fatalf("expected failure message, got %q", driver.infos)
	}
	if !driver.saw(glyphSuccess + " Thank you!") {
		t.Fatalf("expected default success message, got %q", driver.infos)
	}
}

func TestSession_DeclinedRetryReturnsError(t *testing.T) {
	t.Parallel()

	form := &schema.FormSchema{
		FormID: "decline",
		Pages:  []schema.Page{{ID: "main", Fields: []schema.Field{{ID: "name", Type: schema.FieldText}}}},
	}
	rt := testsupport.Mount(t, form, testsupport.NewRecorder(testsupport.Reply{Err: errors.New("boom")}))

	driver := &scriptedDriver{inputs: []string{"x"}, confirms: []bool{false}}
	_, err := New(rt, WithDriver(driver)).Run(context.Background())
	var subErr *submission.SubmissionError
	if !errors.As(err, &subErr) || subErr.Message != "boom" {
		t.Fatalf("expected submission error, got %v", err)
	}
	if rt.State() != runtime.StateIdle {
		t.Fatalf("expected idle after failure, got %s", rt.State())
	}
}

func TestSession_MultiPage(t *testing.T) {
	t.Parallel()

	form := &schema.FormSchema{
		FormID:   "wizard",
		Settings: schema.Settings{MultiPage: true},
		Pages: []schema.Page{
			{ID: "one", Title: "First", Fields: []schema.Field{{ID: "a", Type: schema.FieldText, Label: "A"}}},
			{ID: "two", Title: "Second", Fields: []schema.Field{{ID: "b", Type: schema.FieldNumber, Label: "B"}}},
		},
	}
	recorder := testsupport.NewRecorder()
	rt := testsupport.Mount(t, form, recorder)

	driver := &scriptedDriver{inputs: []string{"x", "42"}}
	if _, err := New(rt, WithDriver(driver)).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "x", "b": float64(42)}, recorder.Last()); diff != "" {
		t.Fatalf("submitted data (-want +got):\n%s", diff)
	}
	if !driver.saw(glyphPage+" First (1/2)") || !driver.saw(glyphPage+" Second (2/2)") {
		t.Fatalf("expected page headers, got %q", driver.infos)
	}
}
