// Package uterr is the error construction helpers of uptrack.
package uterr

import (
	"errors"
	"fmt"
)

// Error is a kind-tagged error.
//
// Please use errors.Is to know the kind of error, and errors.Unwrap to get the cause.
type Error struct {
	kind    error
	from    error
	message string
}

// New creates a new Error.
// The kind should be one of the sentinel errors in lib-uptrack, and from is the cause that may be nil.
func New(kind error, from error, format string, args ...interface{}) Error {
	msg := fmt.Sprintf(format, args...)
	if from != nil {
		if msg != "" {
			msg += ": "
		}
		msg += from.Error()
	}

	return Error{
		kind:    kind,
		from:    from,
		message: msg,
	}
}

// Error implements error interface.
func (e Error) Error() string {
	return e.message
}

// Unwrap implement for errors.Unwrap.
func (e Error) Unwrap() error {
	return e.from
}

// Is implement for errors.Is.
func (e Error) Is(err error) bool {
	return e.kind == err
}

// Kind returns the kind of err, or nil if err is not made by this package.
func Kind(err error) error {
	var e Error
	if errors.As(err, &e) {
		return e.kind
	}
	return nil
}
