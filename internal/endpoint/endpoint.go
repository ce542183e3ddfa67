// Package endpoint is the read-only HTTP interface of uptrack.
package endpoint

import (
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// CurrentTime returns current time.
// This variable is for testing purpose.
var CurrentTime = time.Now

// New makes the HTTP handler.
//
// The metrics in gatherer are served at /metrics.
func New(m Monitor, gatherer prometheus.Gatherer, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context())))
		})
	})

	r.Get("/healthz", HealthzEndpoint(m))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/status.json", StatusJSONEndpoint(m))
	r.Get("/incidents.json", OpenIncidentsJSONEndpoint(m))

	r.Route("/sites/{slug}", func(r chi.Router) {
		r.Get("/status.json", SiteStatusJSONEndpoint(m))
		r.Get("/stats.json", SiteStatsJSONEndpoint(m))
		r.Get("/incidents.json", SiteIncidentsJSONEndpoint(m))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return gziphandler.GzipHandler(r)
}

func writeJSON(w http.ResponseWriter, r *http.Request, scope string, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	handleError(r, scope, enc.Encode(v))
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleError logs an error that happened while serving.
func handleError(r *http.Request, scope string, err error) {
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("endpoint", scope).Msg("failed to serve")
	}
}

// failed reports an error of the monitor as 500 Internal Server Error.
func failed(w http.ResponseWriter, r *http.Request, scope string, err error) {
	handleError(r, scope, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
