package endpoint

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uptrack/uptrack/internal/monitor"
)

// StatusJSONEndpoint serves the summary of all sites.
func StatusJSONEndpoint(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := m.Summarize(r.Context(), CurrentTime())
		if err != nil {
			failed(w, r, "status.json", err)
			return
		}

		writeJSON(w, r, "status.json", sum)
	}
}

// lookupTarget finds the site of the {slug} parameter, or responds 404.
func lookupTarget(m Monitor, w http.ResponseWriter, r *http.Request) (monitor.Target, bool) {
	slug := chi.URLParam(r, "slug")

	t, ok := m.Target(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "no such site: "+slug)
	}
	return t, ok
}

// SiteStatusJSONEndpoint serves the summary of a site.
func SiteStatusJSONEndpoint(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := lookupTarget(m, w, r)
		if !ok {
			return
		}

		s, err := m.SiteStatus(r.Context(), t, CurrentTime())
		if err != nil {
			failed(w, r, "sites/status.json", err)
			return
		}

		writeJSON(w, r, "sites/status.json", s)
	}
}

// SiteStatsJSONEndpoint serves the window statistics of a site.
func SiteStatsJSONEndpoint(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := lookupTarget(m, w, r)
		if !ok {
			return
		}

		stats, err := m.GetWindowStats(r.Context(), t.Slug, CurrentTime())
		if err != nil {
			failed(w, r, "sites/stats.json", err)
			return
		}

		writeJSON(w, r, "sites/stats.json", stats)
	}
}
