package uptrack_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

func TestIncident_jsonRoundTrip(t *testing.T) {
	closed := time.Date(2021, 1, 2, 16, 0, 0, 0, time.UTC)

	tests := []api.Incident{
		{
			ID:        1,
			Slug:      "api",
			Title:     "api is down",
			CreatedAt: time.Date(2021, 1, 2, 15, 0, 0, 0, time.UTC),
			Status:    api.IncidentOpen,
		},
		{
			ID:        2,
			Slug:      "api",
			Labels:    []string{"status", "api"},
			Title:     "api is down",
			CreatedAt: time.Date(2021, 1, 2, 15, 0, 0, 0, time.UTC),
			ClosedAt:  &closed,
			Status:    api.IncidentClosed,
		},
	}

	for _, tt := range tests {
		b, err := json.Marshal(tt)
		if err != nil {
			t.Fatalf("failed to marshal: %s", err)
		}

		var got api.Incident
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("failed to unmarshal %s: %s", b, err)
		}

		if diff := cmp.Diff(tt, got); diff != "" {
			t.Errorf("incident changed after round trip:\n%s", diff)
		}
	}
}

func TestIncident_Duration(t *testing.T) {
	created := time.Date(2021, 1, 2, 15, 0, 0, 0, time.UTC)
	closed := created.Add(10 * time.Minute)

	open := api.Incident{CreatedAt: created}
	if d := open.Duration(created.Add(time.Hour)); d != time.Hour {
		t.Errorf("unexpected duration of open incident: %s", d)
	}

	done := api.Incident{CreatedAt: created, ClosedAt: &closed, Status: api.IncidentClosed}
	if d := done.Duration(created.Add(time.Hour)); d != 10*time.Minute {
		t.Errorf("unexpected duration of closed incident: %s", d)
	}
}
