package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/incident"
	"github.com/uptrack/uptrack/internal/monitor"
	"github.com/uptrack/uptrack/internal/schedule"
	"github.com/uptrack/uptrack/internal/scheme"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// NewMonitor makes the monitor for the sites in the configuration.
// The schedules are in the same order as the targets of the monitor.
func (cmd *UptrackCommand) NewMonitor(ctx context.Context, st *Storage, log zerolog.Logger, reg prometheus.Registerer) (*monitor.Monitor, []schedule.Schedule, error) {
	c := cmd.Config

	targets := make([]monitor.Target, 0, len(c.Sites))
	schedules := make([]schedule.Schedule, 0, len(c.Sites))

	errs := &uterr.ListBuilder{What: api.ErrInvalidConfig}
	for i, s := range c.Sites {
		p, err := scheme.NewProber(s.CheckType(), s.URL, s.ProbeOptions())
		if err != nil {
			errs.Add(fmt.Sprintf("sites[%d].url", i), err)
			continue
		}

		sc := c.ScheduleOf(s)
		schedules = append(schedules, sc)

		targets = append(targets, monitor.Target{
			Name:       s.Name,
			Slug:       s.Slug,
			Prober:     p,
			Attempts:   c.AttemptsOf(s),
			Timeout:    c.TimeoutOf(s),
			Thresholds: s.Thresholds(),
			Interval:   sc.Interval(),
		})
	}
	if err := errs.Build(); err != nil {
		return nil, nil, err
	}

	tr, err := incident.NewTracker(ctx, st.Incidents)
	if err != nil {
		return nil, nil, err
	}

	m := monitor.New(st.History, tr, targets, monitor.Options{
		Location: c.Location(),
		Metrics:  monitor.NewMetrics(reg),
		Logger:   log,
	})

	return m, schedules, nil
}
