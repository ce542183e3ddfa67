package uptrack

import (
	"errors"
)

// The errors of uptrack can be checked via errors.Is function.
var (
	// ErrProbeAttempt is a single failed sample round.
	// It is always recoverable and never surfaces from a probe.
	ErrProbeAttempt = errors.New("probe attempt failed")

	// ErrAllAttemptsFailed means every sample round of a probe failed.
	// The classifier treats it as down.
	ErrAllAttemptsFailed = errors.New("all probe attempts failed")

	// ErrInvalidProbeSettings means the attempt count or the timeout of a probe is out of range.
	ErrInvalidProbeSettings = errors.New("invalid probe settings")

	// ErrStorageUnavailable means the history or the incident document could not be read or written.
	// It is fatal for the current cycle.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrIncidentIndexInconsistency means the slug index refers to an incident that does not exist.
	// It is recovered by rebuilding the index.
	ErrIncidentIndexInconsistency = errors.New("incident index inconsistency")

	// ErrInvalidRecord means a stored record could not be decoded.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidConfig means the configuration could not be loaded or validated.
	ErrInvalidConfig = errors.New("invalid configuration")
)
