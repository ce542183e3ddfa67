package uptrack

import (
	"fmt"
	"strings"
)

const (
	// StatusUp means the probe succeeded and no threshold was violated.
	StatusUp Status = iota

	// StatusDegraded means the probe succeeded but a soft threshold was violated.
	// Degraded counts as available in uptime percentages.
	StatusDegraded

	// StatusDown means the probe failed outright.
	StatusDown
)

// Status is the classified status of a site.
type Status int8

// ParseStatus parses status string.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up":
		return StatusUp, nil
	case "degraded":
		return StatusDegraded, nil
	case "down":
		return StatusDown, nil
	default:
		return StatusDown, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, raw)
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDegraded:
		return "degraded"
	default:
		return "down"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	x, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = x
	return nil
}

// IsUp reports whether the status is StatusUp.
func (s Status) IsUp() bool {
	return s == StatusUp
}
