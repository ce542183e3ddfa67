package uptrack

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Outcome is a recorded probe result of a site.
//
// Outcomes are immutable once appended to the history.
type Outcome struct {
	Slug string

	Status Status

	// Code is the HTTP status code, or 0 for checks that have no status code.
	Code int

	// ResponseTime is the averaged latency in milliseconds.
	ResponseTime float64

	ObservedAt time.Time
}

type jsonOutcome struct {
	Slug         string  `json:"slug"`
	Status       Status  `json:"status"`
	Code         int     `json:"code"`
	ResponseTime float64 `json:"responseTime"`
	ObservedAt   string  `json:"observedAt"`
}

// MarshalJSON implements json.Marshaler.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonOutcome{
		Slug:         o.Slug,
		Status:       o.Status,
		Code:         o.Code,
		ResponseTime: o.ResponseTime,
		ObservedAt:   o.ObservedAt.Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var jo jsonOutcome
	if err := json.Unmarshal(data, &jo); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}

	if jo.Slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidRecord)
	}

	t, err := time.Parse(time.RFC3339Nano, jo.ObservedAt)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}

	*o = Outcome{
		Slug:         jo.Slug,
		Status:       jo.Status,
		Code:         jo.Code,
		ResponseTime: jo.ResponseTime,
		ObservedAt:   t,
	}

	return nil
}

// Milliseconds converts a duration to fractional milliseconds with microsecond precision.
func Milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// OutcomeScanner reads a history of a site.
//
// Outcomes are returned in the order of ObservedAt.
// Callers must call Close after use.
type OutcomeScanner interface {
	// Scan moves to the next outcome. It returns false at the end of the history or on error.
	Scan() bool

	// Outcome returns the current outcome.
	Outcome() Outcome

	// Err returns the first error that stopped scanning, if any.
	Err() error

	// Close releases the underlying resource.
	Close() error
}

type sliceScanner struct {
	outcomes []Outcome
	index    int
}

// NewSliceScanner makes an OutcomeScanner over in-memory outcomes.
// The slice is not copied, so callers must not modify it while scanning.
func NewSliceScanner(outcomes []Outcome) OutcomeScanner {
	return &sliceScanner{outcomes: outcomes, index: -1}
}

func (s *sliceScanner) Scan() bool {
	if s.index+1 >= len(s.outcomes) {
		return false
	}
	s.index++
	return true
}

func (s *sliceScanner) Outcome() Outcome {
	return s.outcomes[s.index]
}

func (s *sliceScanner) Err() error {
	return nil
}

func (s *sliceScanner) Close() error {
	return nil
}

// CollectOutcomes reads all outcomes from the scanner and closes it.
func CollectOutcomes(s OutcomeScanner) ([]Outcome, error) {
	defer s.Close()

	var xs []Outcome
	for s.Scan() {
		xs = append(xs, s.Outcome())
	}
	return xs, s.Err()
}
