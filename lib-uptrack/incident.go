package uptrack

import (
	"fmt"
	"strings"
	"time"
)

const (
	IncidentOpen IncidentStatus = iota
	IncidentClosed
)

// IncidentStatus is the lifecycle state of an Incident.
type IncidentStatus int8

// String implements fmt.Stringer.
func (s IncidentStatus) String() string {
	if s == IncidentClosed {
		return "closed"
	}
	return "open"
}

// MarshalText implements encoding.TextMarshaler.
func (s IncidentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *IncidentStatus) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "open":
		*s = IncidentOpen
	case "closed":
		*s = IncidentClosed
	default:
		return fmt.Errorf("%w: unknown incident status %q", ErrInvalidRecord, text)
	}
	return nil
}

// Incident is a period of non-up status of a site.
type Incident struct {
	// ID is unique across all sites and never reused.
	ID int `json:"id"`

	Slug string `json:"slug"`

	// Labels is nil if the incident has no labels.
	Labels []string `json:"labels"`

	Title string `json:"title"`

	// CreatedAt is the time the first down or degraded outcome was observed.
	CreatedAt time.Time `json:"createdAt"`

	// ClosedAt is the time the site was observed back up.
	ClosedAt *time.Time `json:"closedAt,omitempty"`

	// WillCloseAt is a planned closing time set by an external collaborator.
	WillCloseAt *time.Time `json:"willCloseAt,omitempty"`

	Status IncidentStatus `json:"status"`
}

// IsOpen reports whether the incident is still open.
func (i Incident) IsOpen() bool {
	return i.Status == IncidentOpen
}

// Duration returns how long the incident lasted, or has lasted until now if it is still open.
func (i Incident) Duration(now time.Time) time.Duration {
	if i.ClosedAt != nil {
		return i.ClosedAt.Sub(i.CreatedAt)
	}
	return now.Sub(i.CreatedAt)
}
