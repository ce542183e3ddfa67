package incident_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/uptrack/uptrack/internal/incident"
	"github.com/uptrack/uptrack/internal/testutil"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

func newTracker(t *testing.T, p incident.Persister) *incident.Tracker {
	t.Helper()

	tr, err := incident.NewTracker(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to create tracker: %s", err)
	}
	return tr
}

func TestTracker_Observe(t *testing.T) {
	t.Parallel()

	for name, p := range testutil.Persisters(t) {
		p := p
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			tr := newTracker(t, p)
			t0 := testutil.ParseTime(t, "2026-04-01T09:00:00Z")

			sequence := []struct {
				Status api.Status
				Kind   *incident.TransitionKind
			}{
				{api.StatusUp, nil},
				{api.StatusDown, ptr(incident.TransitionOpened)},
				{api.StatusDown, nil},
				{api.StatusUp, ptr(incident.TransitionClosed)},
			}

			for i, s := range sequence {
				now := t0.Add(time.Duration(i) * 5 * time.Minute)
				got, err := tr.Observe(ctx, "api", s.Status, now, incident.NewMeta("API", "api", s.Status))
				if err != nil {
					t.Fatalf("%d: failed to observe: %s", i, err)
				}

				if s.Kind == nil {
					if got != nil {
						t.Errorf("%d: expected no transition but got %v", i, got)
					}
				} else if got == nil || got.Kind != *s.Kind {
					t.Errorf("%d: expected %s but got %v", i, *s.Kind, got)
				}
			}

			xs, err := tr.Timeline(ctx, "api")
			if err != nil {
				t.Fatalf("failed to get timeline: %s", err)
			}

			closedAt := t0.Add(15 * time.Minute)
			want := []api.Incident{{
				ID:        1,
				Slug:      "api",
				Labels:    []string{"status", "api"},
				Title:     "🛑 API is down",
				CreatedAt: t0.Add(5 * time.Minute),
				ClosedAt:  &closedAt,
				Status:    api.IncidentClosed,
			}}
			if diff := cmp.Diff(want, xs); diff != "" {
				t.Errorf("unexpected timeline\n%s", diff)
			}

			if open, err := tr.Open(ctx); err != nil || len(open) != 0 {
				t.Errorf("expected no open incident but got %v, %v", open, err)
			}
		})
	}
}

func ptr[T any](x T) *T {
	return &x
}

func TestTracker_Observe_degradedThenDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := newTracker(t, incident.NewMemoryPersister())
	t0 := testutil.ParseTime(t, "2026-04-01T09:00:00Z")

	statuses := []api.Status{api.StatusDegraded, api.StatusDown, api.StatusDegraded, api.StatusUp, api.StatusDown}
	for i, s := range statuses {
		if _, err := tr.Observe(ctx, "web", s, t0.Add(time.Duration(i)*time.Minute), incident.NewMeta("Web", "web", s)); err != nil {
			t.Fatalf("failed to observe: %s", err)
		}
	}

	xs, err := tr.Timeline(ctx, "web")
	if err != nil {
		t.Fatalf("failed to get timeline: %s", err)
	}
	if len(xs) != 2 {
		t.Fatalf("expected 2 incidents but got %d", len(xs))
	}

	if xs[0].Title != "⚠️ Web has degraded performance" || xs[0].IsOpen() {
		t.Errorf("unexpected first incident: %v", xs[0])
	}
	if diff := cmp.Diff([]string{"status", "web", "degraded"}, xs[0].Labels); diff != "" {
		t.Errorf("unexpected labels\n%s", diff)
	}
	if xs[1].ID != 2 || !xs[1].IsOpen() || !xs[1].CreatedAt.Equal(t0.Add(4*time.Minute)) {
		t.Errorf("unexpected second incident: %v", xs[1])
	}

	open, err := tr.Open(ctx)
	if err != nil {
		t.Fatalf("failed to get open incidents: %s", err)
	}
	if len(open) != 1 || open[0].ID != 2 {
		t.Errorf("unexpected open incidents: %v", open)
	}
}

func TestTracker_Observe_concurrent(t *testing.T) {
	t.Parallel()

	for name, p := range testutil.Persisters(t) {
		p := p
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			tr := newTracker(t, p)
			now := time.Now()

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()

					slug := fmt.Sprintf("site-%d", i%4)
					if _, err := tr.Observe(ctx, slug, api.StatusDown, now, incident.NewMeta(slug, slug, api.StatusDown)); err != nil {
						t.Errorf("failed to observe: %s", err)
					}
				}(i)
			}
			wg.Wait()

			open, err := tr.Open(ctx)
			if err != nil {
				t.Fatalf("failed to get open incidents: %s", err)
			}
			if len(open) != 4 {
				t.Fatalf("expected one open incident per site but got %d", len(open))
			}

			seen := make(map[string]bool)
			for _, x := range open {
				if seen[x.Slug] {
					t.Errorf("%s has two open incidents", x.Slug)
				}
				seen[x.Slug] = true
			}
		})
	}
}

func TestTracker_restart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "incidents.json")
	t0 := testutil.ParseTime(t, "2026-04-01T09:00:00Z")

	p1, err := incident.NewFilePersister(path)
	if err != nil {
		t.Fatalf("failed to create persister: %s", err)
	}
	if _, err := newTracker(t, p1).Observe(ctx, "api", api.StatusDown, t0, incident.Meta{Title: "down"}); err != nil {
		t.Fatalf("failed to observe: %s", err)
	}

	p2, err := incident.NewFilePersister(path)
	if err != nil {
		t.Fatalf("failed to create persister: %s", err)
	}
	tr := newTracker(t, p2)

	got, err := tr.Observe(ctx, "api", api.StatusDown, t0.Add(time.Minute), incident.Meta{Title: "down"})
	if err != nil || got != nil {
		t.Fatalf("expected no transition after restart but got %v, %v", got, err)
	}

	got, err = tr.Observe(ctx, "api", api.StatusUp, t0.Add(2*time.Minute), incident.Meta{})
	if err != nil || got == nil || got.Kind != incident.TransitionClosed || got.Incident.ID != 1 {
		t.Fatalf("expected to close incident #1 but got %v, %v", got, err)
	}
}

func TestTracker_inconsistentIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := incident.NewMemoryPersister()
	tr := newTracker(t, p)
	t0 := testutil.ParseTime(t, "2026-04-01T09:00:00Z")

	if _, err := tr.Observe(ctx, "api", api.StatusDown, t0, incident.Meta{}); err != nil {
		t.Fatalf("failed to observe: %s", err)
	}

	err := p.Update(ctx, func(d *incident.Document) error {
		d.Index["api"] = append(d.Index["api"], 100)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to corrupt index: %s", err)
	}

	got, err := tr.Observe(ctx, "api", api.StatusUp, t0.Add(time.Minute), incident.Meta{})
	if err != nil {
		t.Fatalf("inconsistency must be recovered but got %s", err)
	}
	if got == nil || got.Kind != incident.TransitionClosed || got.Incident.ID != 1 {
		t.Errorf("expected to close incident #1 but got %v", got)
	}

	err = p.View(ctx, func(d *incident.Document) error {
		return d.Verify()
	})
	if err != nil {
		t.Errorf("index is not rebuilt: %s", err)
	}
}

func TestTracker_Timeline_inconsistentIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := incident.NewMemoryPersister()
	tr := newTracker(t, p)

	err := p.Update(ctx, func(d *incident.Document) error {
		d.Index["ghost"] = []int{7}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to corrupt index: %s", err)
	}

	xs, err := tr.Timeline(ctx, "ghost")
	if err != nil || len(xs) != 0 {
		t.Errorf("expected empty timeline but got %v, %v", xs, err)
	}
}

func TestPersister_rollback(t *testing.T) {
	t.Parallel()

	errAbort := errors.New("abort")

	for name, p := range testutil.Persisters(t) {
		p := p
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			err := p.Update(ctx, func(d *incident.Document) error {
				d.NextID = 100
				return errAbort
			})
			if !errors.Is(err, errAbort) {
				t.Fatalf("expected abort error but got %v", err)
			}

			err = p.View(ctx, func(d *incident.Document) error {
				if d.NextID != 1 {
					t.Errorf("change must be discarded but NextID is %d", d.NextID)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("failed to view: %s", err)
			}
		})
	}
}
