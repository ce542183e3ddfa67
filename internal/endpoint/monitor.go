package endpoint

import (
	"context"
	"time"

	"github.com/uptrack/uptrack/internal/monitor"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// Monitor is the read-only view of monitor.Monitor that the endpoints use.
type Monitor interface {
	// Target looks up a configured site by slug.
	Target(slug string) (monitor.Target, bool)

	// Summarize makes the summary of all sites as of now.
	Summarize(ctx context.Context, now time.Time) (api.Summary, error)

	// SiteStatus makes the summary of a site as of now.
	SiteStatus(ctx context.Context, t monitor.Target, now time.Time) (api.SiteStatus, error)

	// GetWindowStats computes the statistics of a site as of now.
	GetWindowStats(ctx context.Context, slug string, now time.Time) (api.WindowStats, error)

	// GetIncidentTimeline returns the incidents of a site in the order of creation.
	GetIncidentTimeline(ctx context.Context, slug string) ([]api.Incident, error)

	// OpenIncidents returns the open incidents of all sites.
	OpenIncidents(ctx context.Context) ([]api.Incident, error)

	// Errors returns a list of internal errors.
	Errors() (healthy bool, messages []string)
}
