// Package csvexport writes form submissions as CSV. Repeatable sections are
// either flattened into a single cell or expanded into one row per instance.
package csvexport

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formruntime/pkg/store"
	"github.com/goliatone/go-formruntime/pkg/submission"
)

// Mode controls how repeatable sections become columns.
type Mode string

const (
	// Flatten joins instance values with "; " and instances with " | ".
	Flatten Mode = "flatten"
	// Separate adds one row per instance after the summary row.
	Separate Mode = "separate"
)

// DateFormat selects the rendering of time.Time values.
type DateFormat string

const (
	DateISO DateFormat = "ISO"
	DateUS  DateFormat = "US"
	DateEU  DateFormat = "EU"
)

// Connector is a submission.Submitter that appends each submission to w.
type Connector struct {
	mu         sync.Mutex
	w          io.Writer
	mode       Mode
	headers    map[string]string
	dateFormat DateFormat
	order      []string
	withID     bool
	newID      func() string
}

var _ submission.Submitter = (*Connector)(nil)

// Option configures a Connector.
type Option func(*Connector)

// WithMode selects Flatten (default) or Separate.
func WithMode(mode Mode) Option {
	return func(c *Connector) {
		if mode == Flatten || mode == Separate {
			c.mode = mode
		}
	}
}

// WithHeaderMapping renames columns. Keys are column keys such as "email" or,
// in Separate mode, "contacts.email".
func WithHeaderMapping(mapping map[string]string) Option {
	return func(c *Connector) {
		for k, v := range mapping {
			c.headers[k] = v
		}
	}
}

// WithDateFormat selects how time values are written.
func WithDateFormat(format DateFormat) Option {
	return func(c *Connector) {
		c.dateFormat = format
	}
}

// WithColumnOrder fixes the leading columns; remaining keys follow sorted.
func WithColumnOrder(keys ...string) Option {
	return func(c *Connector) {
		c.order = append(c.order, keys...)
	}
}

// WithSubmissionID prepends a generated "submission_id" column.
func WithSubmissionID() Option {
	return func(c *Connector) {
		c.withID = true
	}
}

// New builds a Connector writing to w.
func New(w io.Writer, opts ...Option) *Connector {
	c := &Connector{
		w:          w,
		mode:       Flatten,
		headers:    make(map[string]string),
		dateFormat: DateISO,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Submit writes a header row and the data rows for one submission.
func (c *Connector) Submit(_ context.Context, data map[string]any) (submission.Result, error) {
	id := ""
	if c.withID {
		id = c.newID()
	}
	if err := c.Write(data, id); err != nil {
		return submission.Result{Success: false, Message: fmt.Sprintf("Error generating CSV: %v", err)}, nil
	}
	return submission.Result{Success: true, Message: "CSV export written successfully", ID: id}, nil
}

// Write encodes data. A non-empty id is written as the first column.
func (c *Connector) Write(data map[string]any, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w == nil {
		return fmt.Errorf("csvexport: writer is nil")
	}
	rows, err := c.Rows(data)
	if err != nil {
		return err
	}
	if id != "" {
		rows[0] = append([]string{"submission_id"}, rows[0]...)
		for i := 1; i < len(rows); i++ {
			rows[i] = append([]string{id}, rows[i]...)
		}
	}
	cw := csv.NewWriter(c.w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("csvexport: write: %w", err)
	}
	return nil
}

// Rows returns the header row followed by the data rows. In Flatten mode
// there is one data row. In Separate mode the first data row carries the
// page-level values and every instance adds a row with its section's
// columns (section.field) filled in and the page-level values repeated.
func (c *Connector) Rows(data map[string]any) ([][]string, error) {
	flat := make(map[string]any, len(data))
	sections := make(map[string][]map[string]any)
	for key, value := range data {
		items, ok := instances(value)
		switch {
		case !ok:
			flat[key] = value
		case c.mode == Separate:
			sections[key] = items
		default:
			flat[key] = c.flattenSection(items)
		}
	}

	keys := c.columns(flat, sections)
	header := make([]string, len(keys))
	for i, key := range keys {
		header[i] = key
		if mapped, ok := c.headers[key]; ok && mapped != "" {
			header[i] = mapped
		}
	}

	summary := make([]string, len(keys))
	for i, key := range keys {
		value, err := c.format(flat[key])
		if err != nil {
			return nil, err
		}
		summary[i] = value
	}
	rows := [][]string{header, summary}

	for _, name := range sortedKeys(sections) {
		prefix := name + "."
		for _, item := range sections[name] {
			row := append([]string(nil), summary...)
			for i, key := range keys {
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				value, err := c.format(item[strings.TrimPrefix(key, prefix)])
				if err != nil {
					return nil, err
				}
				row[i] = value
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// columns orders the flat keys plus one section.field column per field seen
// in any instance.
func (c *Connector) columns(flat map[string]any, sections map[string][]map[string]any) []string {
	all := make(map[string]struct{}, len(flat))
	for key := range flat {
		all[key] = struct{}{}
	}
	for name, items := range sections {
		for _, item := range items {
			for field := range item {
				all[name+"."+field] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(all))
	for _, key := range c.order {
		if _, ok := all[key]; ok {
			out = append(out, key)
			delete(all, key)
		}
	}
	rest := make([]string, 0, len(all))
	for key := range all {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (c *Connector) flattenSection(items []map[string]any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		values := make([]string, 0, len(item))
		for _, field := range sortedKeys(item) {
			v, err := c.format(item[field])
			if err != nil {
				v = ""
			}
			values = append(values, v)
		}
		parts = append(parts, strings.Join(values, "; "))
	}
	return strings.Join(parts, " | ")
}

func (c *Connector) format(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case time.Time:
		return c.formatDate(v), nil
	case []string:
		return strings.Join(v, ", "), nil
	case store.File:
		return v.Name, nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int64, float32, float64:
		return fmt.Sprint(v), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("csvexport: encode value: %w", err)
	}
	return string(raw), nil
}

func (c *Connector) formatDate(t time.Time) string {
	switch c.dateFormat {
	case DateUS:
		return t.Format("1/2/2006")
	case DateEU:
		return t.Format("2/1/2006")
	default:
		return t.Format("2006-01-02")
	}
}

func instances(value any) ([]map[string]any, bool) {
	switch v := value.(type) {
	case []map[string]any:
		return v, true
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, len(out) > 0
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
