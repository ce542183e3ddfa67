// Package classify maps a probe result to the status of a site.
package classify

import (
	"bytes"
	"slices"
	"time"

	"github.com/uptrack/uptrack/internal/scheme"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// DefaultExpectedStatusCodes is the set of HTTP status codes that an http check accepts by default.
var DefaultExpectedStatusCodes = []int{
	200, 201, 202, 203, 204, 205, 206, 207, 208, 226,
	300, 301, 302, 303, 304, 305, 306, 307, 308,
}

// Thresholds are the per-site conditions to judge a probe result.
type Thresholds struct {
	// MaxResponseTime is the latency limit for up. Zero disables the check.
	MaxResponseTime time.Duration

	// ExpectedStatusCodes is the set of acceptable codes. Empty disables the check.
	ExpectedStatusCodes []int

	BodyDown                  string
	BodyDownIfTextMissing     string
	BodyDegraded              string
	BodyDegradedIfTextMissing string
}

// Classify decides the status from the result of scheme.Probe.
//
// Hard failures are checked before soft thresholds,
// so a slow and broken response is down, never degraded.
func Classify(res scheme.Result, err error, t Thresholds) api.Status {
	if err != nil {
		return api.StatusDown
	}

	if len(t.ExpectedStatusCodes) > 0 && !slices.Contains(t.ExpectedStatusCodes, res.Code) {
		return api.StatusDown
	}

	if contains(res.Body, t.BodyDown) || missing(res.Body, t.BodyDownIfTextMissing) {
		return api.StatusDown
	}

	if t.MaxResponseTime > 0 && res.Latency > t.MaxResponseTime {
		return api.StatusDegraded
	}

	if contains(res.Body, t.BodyDegraded) || missing(res.Body, t.BodyDegradedIfTextMissing) {
		return api.StatusDegraded
	}

	return api.StatusUp
}

func contains(body []byte, marker string) bool {
	return marker != "" && bytes.Contains(body, []byte(marker))
}

func missing(body []byte, marker string) bool {
	return marker != "" && !bytes.Contains(body, []byte(marker))
}
