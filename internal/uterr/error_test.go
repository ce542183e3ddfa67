package uterr_test

import (
	"errors"
	"testing"

	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

func TestError(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		kind    error
		from    error
		format  string
		args    []interface{}
		message string
	}{
		{
			api.ErrStorageUnavailable,
			cause,
			"failed to append history of %s",
			[]interface{}{"api"},
			"failed to append history of api: disk full",
		},
		{
			api.ErrAllAttemptsFailed,
			nil,
			"%d attempts failed",
			[]interface{}{3},
			"3 attempts failed",
		},
		{
			api.ErrIncidentIndexInconsistency,
			cause,
			"",
			nil,
			"disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			err := uterr.New(tt.kind, tt.from, tt.format, tt.args...)

			if err.Error() != tt.message {
				t.Errorf("unexpected message: %s", err)
			}

			if !errors.Is(err, tt.kind) {
				t.Errorf("error is %#v but reports as not", tt.kind)
			}

			if tt.from != nil && !errors.Is(err, tt.from) {
				t.Errorf("error is sub error of %#v but reports as not", tt.from)
			}

			if uterr.Kind(err) != tt.kind {
				t.Errorf("unexpected kind: %v", uterr.Kind(err))
			}
		})
	}
}

func TestKind_foreign(t *testing.T) {
	if k := uterr.Kind(errors.New("hello")); k != nil {
		t.Errorf("expected nil but got %v", k)
	}
}
