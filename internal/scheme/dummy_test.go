package scheme_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uptrack/uptrack/internal/scheme"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

func TestDummyProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		URL     string
		Latency time.Duration
		Code    int
		Error   error
	}{
		{"dummy:up", 0, 0, nil},
		{"dummy:up?latency=5ms&code=204", 5 * time.Millisecond, 204, nil},
		{"dummy:failure", 0, 0, api.ErrAllAttemptsFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.URL, func(t *testing.T) {
			t.Parallel()

			p, err := scheme.NewDummyProbe(tt.URL)
			if err != nil {
				t.Fatalf("failed to create probe: %s", err)
			}

			res, err := scheme.Probe(context.Background(), p, 2, time.Second)
			if tt.Error != nil {
				if !errors.Is(err, tt.Error) {
					t.Fatalf("expected %v but got %v", tt.Error, err)
				}
				if !errors.Is(err, scheme.ErrDummyFailure) {
					t.Errorf("expected the cause is dummy failure but got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			if res.Latency != tt.Latency {
				t.Errorf("expected latency %s but got %s", tt.Latency, res.Latency)
			}
			if res.Code != tt.Code {
				t.Errorf("expected code %d but got %d", tt.Code, res.Code)
			}
		})
	}
}

func TestNewDummyProbe_invalid(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"dummy:sleepy", "dummy:up?latency=abc", "dummy:up?code=abc", "http://example.com"} {
		if _, err := scheme.NewDummyProbe(u); err == nil {
			t.Errorf("%s: expected error but got nil", u)
		}
	}
}
