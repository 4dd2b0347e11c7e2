package submission

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestController_Outcomes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		fn      Func
		want    Result
		wantErr bool
	}{
		{
			name: "success",
			fn: func(context.Context, map[string]any) (Result, error) {
				return Result{Success: true, Message: "Saved", ID: "42"}, nil
			},
			want: Result{Success: true, Message: "Saved", ID: "42"},
		},
		{
			name: "failure without message",
			fn: func(context.Context, map[string]any) (Result, error) {
				return Result{}, nil
			},
			want:    Result{Message: DefaultFailureMessage},
			wantErr: true,
		},
		{
			name: "returned error",
			fn: func(context.Context, map[string]any) (Result, error) {
				return Result{}, errors.New("network down")
			},
			want:    Result{Message: "network down"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewController().Run(context.Background(), map[string]any{"a": 1}, tc.fn)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("result (-want +got):\n%s", diff)
			}
			if tc.wantErr {
				var subErr *SubmissionError
				if !errors.As(err, &subErr) || subErr.Message != tc.want.Message {
					t.Fatalf("expected SubmissionError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestController_SingleFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	submitter := Func(func(context.Context, map[string]any) (Result, error) {
		calls.Add(1)
		close(started)
		<-release
		return Result{Success: true}, nil
	})

	c := NewController()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := c.Run(context.Background(), nil, submitter); err != nil {
			t.Errorf("first run: %v", err)
		}
	}()

	<-started
	if !c.InFlight() {
		t.Fatalf("expected in-flight state")
	}
	if _, err := c.Run(context.Background(), nil, submitter); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("submitter invoked %d times", calls.Load())
	}
	if c.InFlight() {
		t.Fatalf("guard should be released")
	}
}

func TestController_Timeout(t *testing.T) {
	t.Parallel()

	c := NewController(WithTimeout(10 * time.Millisecond))
	_, err := c.Run(context.Background(), nil, Func(func(ctx context.Context, _ map[string]any) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestController_NoSubmitter(t *testing.T) {
	t.Parallel()

	if _, err := NewController().Run(context.Background(), nil, nil); !errors.Is(err, ErrNoSubmitter) {
		t.Fatalf("expected ErrNoSubmitter, got %v", err)
	}
}
