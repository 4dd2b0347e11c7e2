// Package webhook submits form data as JSON to an HTTP endpoint, retrying
// failed attempts with exponential backoff.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/submission"
)

const (
	// IdempotencyHeader carries a key shared by every attempt of one submit.
	IdempotencyHeader = "Idempotency-Key"

	defaultAttempts = 3
	defaultDelay    = time.Second
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 1 << 16
)

// Connector is a submission.Submitter that POSTs the snapshot as JSON.
type Connector struct {
	url      string
	method   string
	headers  http.Header
	attempts int
	delay    time.Duration
	timeout  time.Duration
	client   *http.Client
	logger   *zap.Logger
	newKey   func() string
	sleep    func(ctx context.Context, d time.Duration) error
}

var _ submission.Submitter = (*Connector)(nil)

// Option configures a Connector.
type Option func(*Connector)

// WithMethod overrides the HTTP method. Defaults to POST.
func WithMethod(method string) Option {
	return func(c *Connector) {
		if method = strings.ToUpper(strings.TrimSpace(method)); method != "" {
			c.method = method
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(c *Connector) {
		c.headers.Set(key, value)
	}
}

// WithRetry sets the number of attempts and the base delay. The delay before
// attempt n+1 is delay * 2^(n-1).
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Connector) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.delay = delay
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Connector for url.
func New(url string, opts ...Option) *Connector {
	c := &Connector{
		url:      strings.TrimSpace(url),
		method:   http.MethodPost,
		headers:  http.Header{"Content-Type": []string{"application/json"}},
		attempts: defaultAttempts,
		delay:    defaultDelay,
		timeout:  defaultTimeout,
		client:   http.DefaultClient,
		logger:   zap.NewNop(),
		newKey:   func() string { return uuid.NewString() },
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Submit sends data, retrying transport failures and non-2xx responses. A
// JSON response body may carry an "id" (top level or under "data") and an
// "errors" object of field messages.
func (c *Connector) Submit(ctx context.Context, data map[string]any) (submission.Result, error) {
	if c.url == "" {
		return submission.Result{Success: false, Message: "Webhook URL is required"}, nil
	}
	body, err := json.Marshal(data)
	if err != nil {
		return submission.Result{}, fmt.Errorf("webhook: encode payload: %w", err)
	}

	key := c.newKey()
	var (
		lastErr error
		last    response
		made    int
	)
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			wait := c.delay * time.Duration(1<<(attempt-1))
			c.logger.Debug("webhook retry", zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(lastErr))
			if err := c.sleep(ctx, wait); err != nil {
				lastErr = err
				break
			}
		}
		made++
		last, lastErr = c.do(ctx, key, body)
		if lastErr == nil {
			return submission.Result{
				Success: true,
				Message: "Data submitted successfully",
				ID:      last.id(),
			}, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	c.logger.Warn("webhook submission failed", zap.String("url", c.url), zap.Int("attempts", made), zap.Error(lastErr))
	return submission.Result{
		Success: false,
		Message: fmt.Sprintf("Failed after %d attempts: %s", made, lastErr),
		Errors:  last.Errors,
	}, nil
}

// response is the optional JSON body returned by the endpoint.
type response struct {
	ID     any                 `json:"id"`
	Data   *struct{ ID any }   `json:"data"`
	Errors map[string][]string `json:"errors"`
}

func (r response) id() string {
	switch {
	case r.ID != nil:
		return fmt.Sprint(r.ID)
	case r.Data != nil && r.Data.ID != nil:
		return fmt.Sprint(r.Data.ID)
	}
	return ""
}

func (c *Connector) do(ctx context.Context, key string, body []byte) (response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, c.method, c.url, bytes.NewReader(body))
	if err != nil {
		return response{}, err
	}
	req.Header = c.headers.Clone()
	req.Header.Set(IdempotencyHeader, key)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return response{}, errors.New("request timeout")
		}
		return response{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return response{}, err
	}
	var decoded response
	if isJSON(resp.Header.Get("Content-Type")) && len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &decoded); err != nil {
			decoded = response{}
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decoded, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return decoded, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
