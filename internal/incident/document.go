// Package incident tracks the open and closed incidents of sites.
package incident

import (
	"slices"
	"sort"
	"time"

	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// Document is the whole persisted state of incidents.
type Document struct {
	// NextID is the id for the next incident. It only increases.
	NextID int `json:"nextId"`

	Incidents map[int]*api.Incident `json:"incidents"`

	// Index maps a slug to the ids of its incidents in ascending order.
	// It is a projection of Incidents, and RebuildIndex can always reproduce it.
	Index map[string][]int `json:"index"`
}

// NewDocument makes an empty Document.
func NewDocument() *Document {
	return &Document{
		NextID:    1,
		Incidents: make(map[int]*api.Incident),
		Index:     make(map[string][]int),
	}
}

// normalize fills the fields that a decoded document may lack.
func (d *Document) normalize() {
	if d.Incidents == nil {
		d.Incidents = make(map[int]*api.Incident)
	}
	if d.Index == nil {
		d.Index = make(map[string][]int)
	}
	if d.NextID < 1 {
		d.NextID = 1
	}
	for id, x := range d.Incidents {
		if x == nil {
			delete(d.Incidents, id)
			continue
		}
		if id >= d.NextID {
			d.NextID = id + 1
		}
	}
}

// RebuildIndex discards Index and makes it again from Incidents.
func (d *Document) RebuildIndex() {
	d.normalize()

	index := make(map[string][]int)
	for id, x := range d.Incidents {
		index[x.Slug] = append(index[x.Slug], id)
	}
	for _, ids := range index {
		sort.Ints(ids)
	}

	d.Index = index
}

// Verify checks that Index is exactly the projection of Incidents.
func (d *Document) Verify() error {
	total := 0
	for slug, ids := range d.Index {
		for i, id := range ids {
			x, ok := d.Incidents[id]
			if !ok {
				return uterr.New(api.ErrIncidentIndexInconsistency, nil, "index of %s refers to missing incident #%d", slug, id)
			}
			if x.Slug != slug {
				return uterr.New(api.ErrIncidentIndexInconsistency, nil, "index of %s refers to incident #%d of %s", slug, id, x.Slug)
			}
			if i > 0 && ids[i-1] >= id {
				return uterr.New(api.ErrIncidentIndexInconsistency, nil, "index of %s is not in order", slug)
			}
		}
		total += len(ids)
	}

	if total != len(d.Incidents) {
		return uterr.New(api.ErrIncidentIndexInconsistency, nil, "index has %d entries but there are %d incidents", total, len(d.Incidents))
	}

	return nil
}

// Current returns the open incident of the slug, or nil if the slug has no open incident.
//
// Only the last entry of the index is looked up.
func (d *Document) Current(slug string) (*api.Incident, error) {
	ids := d.Index[slug]
	if len(ids) == 0 {
		return nil, nil
	}

	id := ids[len(ids)-1]
	x, ok := d.Incidents[id]
	if !ok || x.Slug != slug {
		return nil, uterr.New(api.ErrIncidentIndexInconsistency, nil, "index of %s refers to missing incident #%d", slug, id)
	}

	if !x.IsOpen() {
		return nil, nil
	}
	return x, nil
}

// Timeline returns copies of the incidents of the slug in the order of creation.
func (d *Document) Timeline(slug string) ([]api.Incident, error) {
	ids := d.Index[slug]
	xs := make([]api.Incident, 0, len(ids))

	for _, id := range ids {
		x, ok := d.Incidents[id]
		if !ok || x.Slug != slug {
			return nil, uterr.New(api.ErrIncidentIndexInconsistency, nil, "index of %s refers to missing incident #%d", slug, id)
		}
		xs = append(xs, copyIncident(x))
	}

	return xs, nil
}

// Open returns copies of all open incidents, the oldest first.
func (d *Document) Open() []api.Incident {
	var xs []api.Incident
	for _, x := range d.Incidents {
		if x.IsOpen() {
			xs = append(xs, copyIncident(x))
		}
	}

	sort.Slice(xs, func(i, j int) bool {
		return xs[i].ID < xs[j].ID
	})

	return xs
}

// open creates a new open incident, and takes a new id for it.
func (d *Document) open(slug string, now time.Time, meta Meta) *api.Incident {
	x := &api.Incident{
		ID:        d.NextID,
		Slug:      slug,
		Labels:    slices.Clone(meta.Labels),
		Title:     meta.Title,
		CreatedAt: now,
		Status:    api.IncidentOpen,
	}

	d.NextID++
	d.Incidents[x.ID] = x
	d.Index[slug] = append(d.Index[slug], x.ID)

	return x
}

func (d *Document) clone() *Document {
	c := &Document{
		NextID:    d.NextID,
		Incidents: make(map[int]*api.Incident, len(d.Incidents)),
		Index:     make(map[string][]int, len(d.Index)),
	}
	for id, x := range d.Incidents {
		y := copyIncident(x)
		c.Incidents[id] = &y
	}
	for slug, ids := range d.Index {
		c.Index[slug] = slices.Clone(ids)
	}
	return c
}

func copyIncident(x *api.Incident) api.Incident {
	y := *x
	y.Labels = slices.Clone(x.Labels)
	if x.ClosedAt != nil {
		t := *x.ClosedAt
		y.ClosedAt = &t
	}
	if x.WillCloseAt != nil {
		t := *x.WillCloseAt
		y.WillCloseAt = &t
	}
	return y
}
