// Package monitor runs the monitoring cycles and serves their results.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/aggregate"
	"github.com/uptrack/uptrack/internal/classify"
	"github.com/uptrack/uptrack/internal/history"
	"github.com/uptrack/uptrack/internal/incident"
	"github.com/uptrack/uptrack/internal/scheme"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

const (
	// maxErrors is the number of error messages that Errors keeps.
	maxErrors = 10
)

// Target is a monitored site.
type Target struct {
	Name string
	Slug string

	Prober     scheme.Prober
	Attempts   int
	Timeout    time.Duration
	Thresholds classify.Thresholds

	// Interval is the probe interval, that caps the downtime of one down outcome.
	Interval time.Duration
}

// CycleResult is the result of one monitoring cycle of a site.
type CycleResult struct {
	Outcome api.Outcome
	Status  api.Status

	// Transition is nil if the incident state did not change.
	Transition *incident.Transition
}

type Options struct {
	// Location decides the calendar dates of daily downtime. Nil means UTC.
	Location *time.Location

	// Metrics can be nil to disable metrics.
	Metrics *Metrics

	Logger zerolog.Logger
}

// Monitor connects the probers, the history store, and the incident tracker.
type Monitor struct {
	history history.Store
	tracker *incident.Tracker
	targets []Target
	bySlug  map[string]Target

	location *time.Location
	metrics  *Metrics
	log      zerolog.Logger

	errorsLock sync.RWMutex
	errors     []string
	healthy    bool
}

// New makes a Monitor for targets.
func New(h history.Store, t *incident.Tracker, targets []Target, opts Options) *Monitor {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	bySlug := make(map[string]Target, len(targets))
	for _, x := range targets {
		bySlug[x.Slug] = x
	}

	return &Monitor{
		history:  h,
		tracker:  t,
		targets:  targets,
		bySlug:   bySlug,
		location: loc,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		healthy:  true,
	}
}

// Targets returns the targets that the Monitor was made with.
func (m *Monitor) Targets() []Target {
	return m.targets
}

// Target looks up a target by slug.
func (m *Monitor) Target(slug string) (Target, bool) {
	t, ok := m.bySlug[slug]
	return t, ok
}

// RunCycle probes the target, appends the outcome to the history, and updates the incidents.
//
// Every call appends exactly one outcome, even if it is called twice with the same now.
// A storage error aborts the cycle and is returned.
// If ctx is done before the probe finishes, nothing is recorded and ctx.Err() is returned.
func (m *Monitor) RunCycle(ctx context.Context, target Target, now time.Time) (CycleResult, error) {
	log := m.log.With().
		Str("cycle", uuid.NewString()).
		Str("slug", target.Slug).
		Logger()
	ctx = log.WithContext(ctx)

	res, err := scheme.Probe(ctx, target.Prober, target.Attempts, target.Timeout)
	if errors.Is(err, api.ErrInvalidProbeSettings) {
		log.Error().Err(err).Msg("invalid probe settings")
		return CycleResult{}, err
	}
	if cerr := ctx.Err(); cerr != nil {
		log.Warn().Err(cerr).Msg("cycle cancelled")
		return CycleResult{}, cerr
	}

	status := classify.Classify(res, err, target.Thresholds)

	r := CycleResult{
		Outcome: api.Outcome{
			Slug:         target.Slug,
			Status:       status,
			Code:         res.Code,
			ResponseTime: api.Milliseconds(res.Latency),
			ObservedAt:   now,
		},
		Status: status,
	}

	ev := log.Info()
	if status != api.StatusUp {
		ev = log.Warn()
	}
	ev.Stringer("status", status).
		Int("code", res.Code).
		Float64("response_time", r.Outcome.ResponseTime).
		Int("failures", res.Failures).
		AnErr("probe_error", err).
		Msg("probe")

	if err := m.history.Append(ctx, target.Slug, r.Outcome); err != nil {
		return r, m.storageError(ctx, target.Slug, err)
	}

	r.Transition, err = m.tracker.Observe(ctx, target.Slug, status, now, incident.NewMeta(target.Name, target.Slug, status))
	if err != nil {
		return r, m.storageError(ctx, target.Slug, err)
	}

	if r.Transition != nil {
		log.Warn().
			Int("incident", r.Transition.Incident.ID).
			Stringer("transition", r.Transition.Kind).
			Str("title", r.Transition.Incident.Title).
			Msg("incident")
	}

	m.metrics.observe(r, res.Failures)
	m.setHealthy()

	return r, nil
}

func (m *Monitor) storageError(ctx context.Context, slug string, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg("cycle aborted")
	m.metrics.storageError(slug)
	m.addError(fmt.Sprintf("%s: %s", slug, err))
	return err
}

// GetWindowStats computes the statistics of the slug as of now.
func (m *Monitor) GetWindowStats(ctx context.Context, slug string, now time.Time) (api.WindowStats, error) {
	sc, err := m.history.Read(ctx, slug)
	if err != nil {
		return api.WindowStats{}, err
	}
	defer sc.Close()

	return aggregate.Compute(sc, now, aggregate.Options{
		Interval: m.bySlug[slug].Interval,
		Location: m.location,
	})
}

// GetCurrentStatus returns the status of the latest outcome of the slug.
// A slug without history is up.
func (m *Monitor) GetCurrentStatus(ctx context.Context, slug string) (api.Status, error) {
	o, found, err := m.history.Last(ctx, slug)
	if err != nil {
		return api.StatusDown, err
	}
	if !found {
		return api.StatusUp, nil
	}
	return o.Status, nil
}

// GetIncidentTimeline returns the incidents of the slug in the order of creation.
func (m *Monitor) GetIncidentTimeline(ctx context.Context, slug string) ([]api.Incident, error) {
	return m.tracker.Timeline(ctx, slug)
}

// OpenIncidents returns all open incidents, the oldest first.
func (m *Monitor) OpenIncidents(ctx context.Context) ([]api.Incident, error) {
	return m.tracker.Open(ctx)
}

func (m *Monitor) setHealthy() {
	m.errorsLock.Lock()
	defer m.errorsLock.Unlock()

	m.healthy = true
}

// addError records an error message for Errors, and marks the Monitor unhealthy.
func (m *Monitor) addError(message string) {
	m.errorsLock.Lock()
	defer m.errorsLock.Unlock()

	m.healthy = false
	m.errors = append(m.errors, fmt.Sprintf("%s\t%s", time.Now().Format(time.RFC3339), message))

	if len(m.errors) > maxErrors {
		m.errors = m.errors[1:]
	}
}

// Errors returns whether the last cycle succeeded, and the recent error messages.
func (m *Monitor) Errors() (healthy bool, messages []string) {
	m.errorsLock.RLock()
	defer m.errorsLock.RUnlock()

	return m.healthy, append([]string(nil), m.errors...)
}
