package endpoint

import (
	"net/http"

	api "github.com/uptrack/uptrack/lib-uptrack"
)

type incidentsResponse struct {
	Incidents []api.Incident `json:"incidents"`
}

// SiteIncidentsJSONEndpoint serves the incident timeline of a site.
func SiteIncidentsJSONEndpoint(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := lookupTarget(m, w, r)
		if !ok {
			return
		}

		xs, err := m.GetIncidentTimeline(r.Context(), t.Slug)
		if err != nil {
			failed(w, r, "sites/incidents.json", err)
			return
		}

		writeJSON(w, r, "sites/incidents.json", incidentsResponse{xs})
	}
}

// OpenIncidentsJSONEndpoint serves the open incidents of all sites.
func OpenIncidentsJSONEndpoint(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		xs, err := m.OpenIncidents(r.Context())
		if err != nil {
			failed(w, r, "incidents.json", err)
			return
		}

		if xs == nil {
			xs = []api.Incident{}
		}
		writeJSON(w, r, "incidents.json", incidentsResponse{xs})
	}
}
