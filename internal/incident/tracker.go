package incident

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

const (
	TransitionOpened TransitionKind = iota
	TransitionClosed
)

// TransitionKind is the kind of change that Tracker.Observe made.
type TransitionKind int8

// String implements fmt.Stringer.
func (k TransitionKind) String() string {
	if k == TransitionClosed {
		return "closed"
	}
	return "opened"
}

// MarshalText implements encoding.TextMarshaler.
func (k TransitionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Transition is a change of the incident state of a site.
type Transition struct {
	Kind     TransitionKind `json:"kind"`
	Incident api.Incident   `json:"incident"`
}

// Meta is the descriptive fields of a new incident.
type Meta struct {
	Title  string
	Labels []string
}

// NewMeta makes the title and labels for an incident of a site that became status.
func NewMeta(name, slug string, status api.Status) Meta {
	if status == api.StatusDegraded {
		return Meta{
			Title:  "⚠️ " + name + " has degraded performance",
			Labels: []string{"status", slug, "degraded"},
		}
	}
	return Meta{
		Title:  "🛑 " + name + " is down",
		Labels: []string{"status", slug},
	}
}

// keyedMutex is a set of mutexes keyed by slug.
type keyedMutex struct {
	sync.Mutex

	locks map[string]*sync.Mutex
}

func (m *keyedMutex) Lock(key string) func() {
	m.Mutex.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*sync.Mutex)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.Mutex.Unlock()

	l.Lock()
	return l.Unlock
}

// Tracker maintains the incidents of sites from their classified statuses.
//
// The state of a site is derived from the persisted Document every time,
// so a Tracker can be restarted at any time.
type Tracker struct {
	persister Persister
	locks     keyedMutex
}

// NewTracker makes a Tracker, and rebuilds the index of the stored document if it is inconsistent.
func NewTracker(ctx context.Context, p Persister) (*Tracker, error) {
	err := p.Update(ctx, func(d *Document) error {
		if err := d.Verify(); err != nil {
			warnInconsistency(ctx, err)
			d.RebuildIndex()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Tracker{persister: p}, nil
}

func warnInconsistency(ctx context.Context, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Msg("rebuild incident index")
}

// Observe applies a classified status of a site at now.
//
// It opens an incident when a site without open incident becomes down or degraded,
// and closes the open incident when the site becomes up.
// It returns nil Transition if nothing changed.
func (t *Tracker) Observe(ctx context.Context, slug string, status api.Status, now time.Time, meta Meta) (*Transition, error) {
	defer t.locks.Lock(slug)()

	var tr *Transition

	err := t.persister.Update(ctx, func(d *Document) error {
		tr = nil

		cur, err := d.Current(slug)
		if errors.Is(err, api.ErrIncidentIndexInconsistency) {
			warnInconsistency(ctx, err)
			d.RebuildIndex()
			cur, err = d.Current(slug)
		}
		if err != nil {
			return err
		}

		switch {
		case cur == nil && status != api.StatusUp:
			x := d.open(slug, now, meta)
			tr = &Transition{Kind: TransitionOpened, Incident: copyIncident(x)}
		case cur != nil && status == api.StatusUp:
			closedAt := now
			cur.ClosedAt = &closedAt
			cur.Status = api.IncidentClosed
			tr = &Transition{Kind: TransitionClosed, Incident: copyIncident(cur)}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tr, nil
}

// Timeline returns the incidents of the slug in the order of creation.
func (t *Tracker) Timeline(ctx context.Context, slug string) ([]api.Incident, error) {
	var xs []api.Incident

	err := t.persister.View(ctx, func(d *Document) (err error) {
		xs, err = d.Timeline(slug)
		return err
	})
	if errors.Is(err, api.ErrIncidentIndexInconsistency) {
		warnInconsistency(ctx, err)

		err = t.persister.Update(ctx, func(d *Document) (err error) {
			d.RebuildIndex()
			xs, err = d.Timeline(slug)
			return err
		})
	}
	if err != nil {
		return nil, err
	}

	return xs, nil
}

// Open returns all open incidents, the oldest first.
func (t *Tracker) Open(ctx context.Context) ([]api.Incident, error) {
	var xs []api.Incident

	err := t.persister.View(ctx, func(d *Document) error {
		xs = d.Open()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return xs, nil
}
