package scheme_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uptrack/uptrack/internal/scheme"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

func RunDummyHTTPServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})
	mux.HandleFunc("/maintenance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("under maintenance"))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write([]byte(r.Method + " " + r.Header.Get("X-Test") + " " + string(body)))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/redirect/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect/loop", http.StatusFound)
	})
	mux.HandleFunc("/redirect/ok", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})

	return httptest.NewServer(mux)
}

func TestHTTPProbe(t *testing.T) {
	t.Parallel()

	server := RunDummyHTTPServer()
	defer server.Close()

	tests := []struct {
		Path string
		Opts scheme.Options
		Code int
		Body string
	}{
		{"/ok", scheme.Options{}, http.StatusOK, "hello world"},
		{"/maintenance", scheme.Options{}, http.StatusServiceUnavailable, "under maintenance"},
		{"/echo", scheme.Options{Method: "post", Headers: []string{"X-Test: yes"}, Body: "payload"}, http.StatusOK, "POST yes payload"},
		{"/redirect/ok", scheme.Options{}, http.StatusOK, "hello world"},
		{"/redirect/ok", scheme.Options{MaxRedirects: -1}, http.StatusFound, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.Path, func(t *testing.T) {
			t.Parallel()

			p, err := scheme.NewHTTPProbe(server.URL+tt.Path, tt.Opts)
			if err != nil {
				t.Fatalf("failed to create probe: %s", err)
			}

			res, err := scheme.Probe(context.Background(), p, 2, 5*time.Second)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			if res.Code != tt.Code {
				t.Errorf("expected code %d but got %d", tt.Code, res.Code)
			}
			if tt.Body != "" && string(res.Body) != tt.Body {
				t.Errorf("expected body %q but got %q", tt.Body, res.Body)
			}
		})
	}
}

func TestHTTPProbe_failures(t *testing.T) {
	t.Parallel()

	server := RunDummyHTTPServer()
	defer server.Close()

	tests := []struct {
		Name    string
		Path    string
		Timeout time.Duration
	}{
		{"timeout", "/slow", 50 * time.Millisecond},
		{"redirect-loop", "/redirect/loop", 5 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.Name, func(t *testing.T) {
			t.Parallel()

			p, err := scheme.NewHTTPProbe(server.URL+tt.Path, scheme.Options{})
			if err != nil {
				t.Fatalf("failed to create probe: %s", err)
			}

			_, err = scheme.Probe(context.Background(), p, 2, tt.Timeout)
			if !errors.Is(err, api.ErrAllAttemptsFailed) {
				t.Errorf("expected all attempts failed but got %v", err)
			}
		})
	}
}

func TestNewHTTPProbe_invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name string
		URL  string
		Opts scheme.Options
	}{
		{"method", "http://example.com", scheme.Options{Method: "CONNECT"}},
		{"header", "http://example.com", scheme.Options{Headers: []string{"no-colon"}}},
		{"scheme", "tcp://example.com", scheme.Options{}},
	}

	for _, tt := range tests {
		if _, err := scheme.NewHTTPProbe(tt.URL, tt.Opts); err == nil {
			t.Errorf("%s: expected error but got nil", tt.Name)
		}
	}
}
