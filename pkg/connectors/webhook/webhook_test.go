package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func noSleep(c *Connector) {
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
}

func TestSubmit_Success(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		if r.Method != http.MethodPut {
			t.Errorf("method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"data":{"id":"sub-1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithMethod("put"), WithHeader("X-Token", "secret"))
	res, err := c.Submit(context.Background(), map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Success || res.ID != "sub-1" || res.Message != "Data submitted successfully" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ada"}, got); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}
	if header.Get("X-Token") != "secret" || header.Get("Content-Type") != "application/json" {
		t.Fatalf("headers not forwarded: %v", header)
	}
	if header.Get(IdempotencyHeader) == "" {
		t.Fatalf("idempotency key missing")
	}
}

func TestSubmit_RetriesWithBackoff(t *testing.T) {
	t.Parallel()

	var (
		calls atomic.Int32
		mu    sync.Mutex
		keys  = map[string]bool{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys[r.Header.Get(IdempotencyHeader)] = true
		mu.Unlock()
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 17}`))
	}))
	defer srv.Close()

	var waits []time.Duration
	c := New(srv.URL, WithRetry(3, 100*time.Millisecond))
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	res, err := c.Submit(context.Background(), map[string]any{})
	if err != nil || !res.Success || res.ID != "17" {
		t.Fatalf("submit: %+v, %v", res, err)
	}
	if diff := cmp.Diff([]time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, waits); diff != "" {
		t.Fatalf("backoff (-want +got):\n%s", diff)
	}
	if len(keys) != 1 {
		t.Fatalf("every attempt must reuse the idempotency key, got %d keys", len(keys))
	}
}

func TestSubmit_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"email":["already registered"]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(2, 0), noSleep)
	res, err := c.Submit(context.Background(), map[string]any{"email": "a@b.c"})
	if err != nil {
		t.Fatalf("failures are reported through the result, got %v", err)
	}
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Message != "Failed after 2 attempts: HTTP 422: Unprocessable Entity" {
		t.Fatalf("message: %q", res.Message)
	}
	if diff := cmp.Diff(map[string][]string{"email": {"already registered"}}, res.Errors); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestSubmit_CancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := New(srv.URL, WithRetry(5, time.Second))
	c.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	res, err := c.Submit(ctx, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one request, got %d", calls.Load())
	}
	if res.Success || !strings.HasPrefix(res.Message, "Failed after 1 attempts: ") {
		t.Fatalf("message should count attempts made: %q", res.Message)
	}
}

func TestSubmit_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, WithRetry(1, 0), WithTimeout(20*time.Millisecond))
	res, err := c.Submit(context.Background(), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Success || !strings.Contains(res.Message, "request timeout") {
		t.Fatalf("expected timeout, got %+v", res)
	}
}

func TestSubmit_MissingURL(t *testing.T) {
	t.Parallel()

	res, err := New("  ").Submit(context.Background(), nil)
	if err != nil || res.Success || res.Message != "Webhook URL is required" {
		t.Fatalf("unexpected: %+v, %v", res, err)
	}
}
