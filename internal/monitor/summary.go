package monitor

import (
	"context"
	"math"
	"time"

	api "github.com/uptrack/uptrack/lib-uptrack"
)

// SiteStatus makes the summary of the target as of now.
func (m *Monitor) SiteStatus(ctx context.Context, t Target, now time.Time) (api.SiteStatus, error) {
	stats, err := m.GetWindowStats(ctx, t.Slug, now)
	if err != nil {
		return api.SiteStatus{}, err
	}

	status, err := m.GetCurrentStatus(ctx, t.Slug)
	if err != nil {
		return api.SiteStatus{}, err
	}

	s := api.SiteStatus{
		Name:   t.Name,
		Slug:   t.Slug,
		Status: status,

		Time:      floorMillis(stats.ResponseTime.All),
		TimeDay:   floorMillis(stats.ResponseTime.Day),
		TimeWeek:  floorMillis(stats.ResponseTime.Week),
		TimeMonth: floorMillis(stats.ResponseTime.Month),
		TimeYear:  floorMillis(stats.ResponseTime.Year),

		Uptime:      stats.Uptime.All,
		UptimeDay:   stats.Uptime.Day,
		UptimeWeek:  stats.Uptime.Week,
		UptimeMonth: stats.Uptime.Month,
		UptimeYear:  stats.Uptime.Year,

		DailyMinutesDown: stats.DailyMinutesDown,
	}
	if t.Prober != nil {
		s.URL = t.Prober.Target().Redacted()
	}

	return s, nil
}

func floorMillis(ms float64) int64 {
	return int64(math.Floor(ms))
}

// Summarize makes the summary of all targets as of now.
func (m *Monitor) Summarize(ctx context.Context, now time.Time) (api.Summary, error) {
	sum := api.Summary{
		Sites:       make([]api.SiteStatus, 0, len(m.targets)),
		GeneratedAt: now,
	}

	var down, degraded int
	for _, t := range m.targets {
		s, err := m.SiteStatus(ctx, t, now)
		if err != nil {
			return api.Summary{}, err
		}

		switch s.Status {
		case api.StatusDown:
			down++
		case api.StatusDegraded:
			degraded++
		}

		sum.Sites = append(sum.Sites, s)
	}

	sum.Overall = api.DetermineOverallStatus(len(sum.Sites), down, degraded)

	return sum, nil
}
