package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// Metrics is the Prometheus metrics of monitoring cycles.
type Metrics struct {
	ResponseTime   *prometheus.HistogramVec
	Status         *prometheus.GaugeVec
	Cycles         *prometheus.CounterVec
	AttemptFailure *prometheus.CounterVec
	StorageErrors  *prometheus.CounterVec
	Incidents      *prometheus.CounterVec
}

// NewMetrics makes Metrics and registers them to reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResponseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uptrack_response_time_seconds",
				Help:    "Averaged response time of successful probes.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"slug"},
		),
		Status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "uptrack_status",
				Help: "Current status of sites. 1 for the current status and 0 for others.",
			},
			[]string{"slug", "status"},
		),
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptrack_cycles_total",
				Help: "Total monitoring cycles by the classified status.",
			},
			[]string{"slug", "status"},
		),
		AttemptFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptrack_probe_attempt_failures_total",
				Help: "Total failed sample rounds of probes.",
			},
			[]string{"slug"},
		),
		StorageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptrack_storage_errors_total",
				Help: "Total cycles aborted by storage errors.",
			},
			[]string{"slug"},
		),
		Incidents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptrack_incident_transitions_total",
				Help: "Total incident transitions.",
			},
			[]string{"slug", "kind"},
		),
	}

	reg.MustRegister(m.ResponseTime, m.Status, m.Cycles, m.AttemptFailure, m.StorageErrors, m.Incidents)

	return m
}

func (m *Metrics) observe(r CycleResult, failures int) {
	if m == nil {
		return
	}

	slug := r.Outcome.Slug

	for _, s := range []api.Status{api.StatusUp, api.StatusDegraded, api.StatusDown} {
		v := 0.0
		if s == r.Status {
			v = 1
		}
		m.Status.WithLabelValues(slug, s.String()).Set(v)
	}

	m.Cycles.WithLabelValues(slug, r.Status.String()).Inc()

	if failures > 0 {
		m.AttemptFailure.WithLabelValues(slug).Add(float64(failures))
	}

	if r.Outcome.Status != api.StatusDown {
		m.ResponseTime.WithLabelValues(slug).Observe(r.Outcome.ResponseTime / 1000)
	}

	if r.Transition != nil {
		m.Incidents.WithLabelValues(slug, r.Transition.Kind.String()).Inc()
	}
}

func (m *Metrics) storageError(slug string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(slug).Inc()
}
