// Package aggregate computes the windowed statistics of a site from its history.
package aggregate

import (
	"time"

	api "github.com/uptrack/uptrack/lib-uptrack"
)

// Options is the settings of Compute.
type Options struct {
	// Interval is the probe interval of the site.
	// A down outcome accounts for the time since the previous outcome, but at most Interval.
	// The first outcome of a history, that has no previous one, accounts for one Interval.
	// Zero disables the cap, and then the first outcome accounts for nothing.
	Interval time.Duration

	// Location is the time zone to decide calendar dates. Nil means UTC.
	Location *time.Location
}

type counter struct {
	total int
	up    int
	sum   float64
}

func (c *counter) add(o api.Outcome) {
	c.total++
	if o.Status != api.StatusDown {
		c.up++
	}
	c.sum += o.ResponseTime
}

func (c counter) uptime() api.Percent {
	if c.total == 0 {
		return 100
	}
	return api.Percent(100 * float64(c.up) / float64(c.total))
}

func (c counter) responseTime() float64 {
	if c.total == 0 {
		return 0
	}
	return c.sum / float64(c.total)
}

// Compute reads all outcomes from sc in one pass and makes the statistics as of now.
//
// Compute does not close sc.
// The result depends only on the outcomes, now, and opts.
func Compute(sc api.OutcomeScanner, now time.Time, opts Options) (api.WindowStats, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var cutoffs [len(windows)]time.Time
	for i, w := range windows {
		cutoffs[i] = w.Cutoff(now)
	}

	var counters [len(windows)]counter
	down := make(map[string]float64)

	var prev time.Time
	first := true

	for sc.Scan() {
		o := sc.Outcome()

		for i := range windows {
			if !o.ObservedAt.Before(cutoffs[i]) {
				counters[i].add(o)
			}
		}

		if o.Status == api.StatusDown {
			if m := downMinutes(prev, o.ObservedAt, first, opts.Interval); m > 0 {
				down[o.ObservedAt.In(loc).Format(api.DateLayout)] += m
			}
		}

		prev = o.ObservedAt
		first = false
	}
	if err := sc.Err(); err != nil {
		return api.WindowStats{}, err
	}

	stats := api.WindowStats{
		DailyMinutesDown: down,
	}
	for i, w := range windows {
		stats.Uptime.Set(w, counters[i].uptime())
		stats.ResponseTime.Set(w, counters[i].responseTime())
	}

	return stats, nil
}

var windows = [...]api.Window{api.WindowDay, api.WindowWeek, api.WindowMonth, api.WindowYear, api.WindowAll}

// downMinutes is the downtime attributed to a down outcome at t.
func downMinutes(prev, t time.Time, first bool, interval time.Duration) float64 {
	if first {
		return interval.Minutes()
	}

	elapsed := t.Sub(prev)
	if elapsed < 0 {
		return 0
	}
	if interval > 0 && elapsed > interval {
		elapsed = interval
	}
	return elapsed.Minutes()
}
