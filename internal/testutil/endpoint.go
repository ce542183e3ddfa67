package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/endpoint"
	"github.com/uptrack/uptrack/internal/history"
	"github.com/uptrack/uptrack/internal/incident"
	"github.com/uptrack/uptrack/internal/monitor"
	"github.com/uptrack/uptrack/internal/scheme"
)

// NewMonitor makes a monitor over in-memory storage with a dummy target per slug.
// The key of targets is the slug, and the value is a dummy: URL.
func NewMonitor(t testing.TB, targets map[string]string) *monitor.Monitor {
	t.Helper()

	tr, err := incident.NewTracker(context.Background(), incident.NewMemoryPersister())
	if err != nil {
		t.Fatalf("failed to create tracker: %s", err)
	}

	var ts []monitor.Target
	for slug, u := range targets {
		p, err := scheme.NewDummyProbe(u)
		if err != nil {
			t.Fatalf("failed to create probe: %s", err)
		}
		ts = append(ts, monitor.Target{
			Name:     slug,
			Slug:     slug,
			Prober:   p,
			Attempts: 1,
			Timeout:  time.Second,
			Interval: 5 * time.Minute,
		})
	}

	return monitor.New(history.NewMemoryStore(), tr, ts, monitor.Options{Logger: zerolog.Nop()})
}

// StartTestServer starts an endpoint server for the monitor.
// Every target of the monitor has run one cycle before the server starts.
func StartTestServer(t testing.TB, m *monitor.Monitor) *httptest.Server {
	t.Helper()

	now := time.Now()
	for _, target := range m.Targets() {
		if _, err := m.RunCycle(context.Background(), target, now); err != nil {
			t.Fatalf("failed to run cycle: %s", err)
		}
	}

	s := httptest.NewServer(endpoint.New(m, prometheus.NewRegistry(), zerolog.Nop()))
	t.Cleanup(s.Close)
	return s
}
