package uptrack

import (
	"time"
)

// SiteStatus is the summary of a site for status pages.
type SiteStatus struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	URL    string `json:"url"`
	Status Status `json:"status"`

	// Time is the all-time average response time in whole milliseconds.
	Time      int64 `json:"time"`
	TimeDay   int64 `json:"timeDay"`
	TimeWeek  int64 `json:"timeWeek"`
	TimeMonth int64 `json:"timeMonth"`
	TimeYear  int64 `json:"timeYear"`

	Uptime      Percent `json:"uptime"`
	UptimeDay   Percent `json:"uptimeDay"`
	UptimeWeek  Percent `json:"uptimeWeek"`
	UptimeMonth Percent `json:"uptimeMonth"`
	UptimeYear  Percent `json:"uptimeYear"`

	DailyMinutesDown map[string]float64 `json:"dailyMinutesDown"`
}

// OverallStatus is the aggregated status of all sites.
type OverallStatus int8

const (
	AllSystemsOperational OverallStatus = iota
	DegradedPerformance
	PartialOutage
	CompleteOutage
)

// DetermineOverallStatus decides the overall status from the number of down and degraded sites.
func DetermineOverallStatus(total, down, degraded int) OverallStatus {
	switch {
	case down == 0 && degraded == 0:
		return AllSystemsOperational
	case down == 0:
		return DegradedPerformance
	case down == total:
		return CompleteOutage
	default:
		return PartialOutage
	}
}

// String implements fmt.Stringer.
func (s OverallStatus) String() string {
	switch s {
	case AllSystemsOperational:
		return "operational"
	case DegradedPerformance:
		return "degraded"
	case PartialOutage:
		return "partial-outage"
	default:
		return "complete-outage"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s OverallStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Summary is the status of all monitored sites.
type Summary struct {
	Sites       []SiteStatus  `json:"sites"`
	Overall     OverallStatus `json:"overall"`
	GeneratedAt time.Time     `json:"generatedAt"`
}
