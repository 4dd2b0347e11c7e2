package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFetch_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "api.yaml")
	if err := os.WriteFile(path, []byte(petstore), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	form, err := Import(context.Background(), data, WithOperation("createPet"))
	if err != nil || form.FormID != "createPet" {
		t.Fatalf("import fetched document: %v", err)
	}
}

func TestFetch_HTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(petstore))
	}))
	t.Cleanup(srv.Close)

	if _, err := Fetch(context.Background(), srv.URL+"/openapi.yaml"); err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected remote loading to be disabled by default, got %v", err)
	}

	data, err := Fetch(context.Background(), srv.URL+"/openapi.yaml", WithHTTPFallback(time.Second))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(string(data), "createPet") {
		t.Fatalf("unexpected body %q", data)
	}

	_, err = Fetch(context.Background(), srv.URL+"/missing", WithHTTPClient(srv.Client()))
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}
