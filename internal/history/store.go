// Package history is the append-only store of probe outcomes.
package history

import (
	"context"
	"errors"
	"strings"

	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

var (
	ErrInvalidSlug = errors.New("invalid slug")
)

// Store is an append-only sequence of outcomes per slug.
//
// Every I/O failure is reported as an error that matches api.ErrStorageUnavailable.
type Store interface {
	// Append adds an outcome to the end of the history of the slug.
	// Appending the same outcome twice makes two entries.
	Append(ctx context.Context, slug string, o api.Outcome) error

	// Read makes a new scanner over the history of the slug in the order of appending.
	// A slug without history yields an empty scanner, not an error.
	Read(ctx context.Context, slug string) (api.OutcomeScanner, error)

	// Last returns the latest outcome of the slug.
	// The bool is false if the slug has no history.
	Last(ctx context.Context, slug string) (api.Outcome, bool, error)

	// Slugs returns the slugs that have history, in dictionary order.
	Slugs(ctx context.Context) ([]string, error)

	Close() error
}

// ValidateSlug checks that slug can be used as a key of the stores.
func ValidateSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, "/\\\x00") {
		return uterr.New(ErrInvalidSlug, nil, "%q can not be used as a slug", slug)
	}
	return nil
}

func unavailable(err error, format string, args ...interface{}) error {
	return uterr.New(api.ErrStorageUnavailable, err, format, args...)
}
