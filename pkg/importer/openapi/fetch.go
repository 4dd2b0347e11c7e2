package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const maxDocumentSize = 16 << 20

// FetchOption configures Fetch.
type FetchOption func(*fetcher)

type fetcher struct {
	client    *http.Client
	allowHTTP bool
	timeout   time.Duration
}

// WithHTTPClient enables http(s) locations using client.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *fetcher) {
		if client != nil {
			f.client = client
			f.allowHTTP = true
		}
	}
}

// WithHTTPFallback enables http(s) locations with a default client and an
// optional request timeout.
func WithHTTPFallback(timeout time.Duration) FetchOption {
	return func(f *fetcher) {
		f.allowHTTP = true
		f.timeout = timeout
	}
}

// Fetch reads an OpenAPI document from a file path or, when enabled, an
// http(s) URL. Remote loading is off by default.
func Fetch(ctx context.Context, location string, opts ...FetchOption) ([]byte, error) {
	f := fetcher{}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("openapi: location is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !isRemote(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", location, err)
		}
		return data, nil
	}
	if !f.allowHTTP {
		return nil, fmt.Errorf("openapi: http support disabled for %s", location)
	}
	return f.get(ctx, location)
}

func (f fetcher) get(ctx context.Context, location string) ([]byte, error) {
	client := f.client
	if client == nil {
		client = &http.Client{}
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("openapi: fetch %s: HTTP %d", location, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", location, err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("openapi: %s exceeds %d bytes", location, maxDocumentSize)
	}
	return data, nil
}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
