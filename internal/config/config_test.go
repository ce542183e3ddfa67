package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/uptrack/uptrack/internal/classify"
	"github.com/uptrack/uptrack/internal/config"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

func TestLoad(t *testing.T) {
	cfg, err := config.Load("testdata/uptrack.yaml")
	if err != nil {
		t.Fatalf("failed to load: %s", err)
	}

	if cfg.Listen != ":8080" || cfg.Attempts != 3 || cfg.Timeout != 2*time.Second {
		t.Errorf("unexpected global settings: %#v", cfg)
	}
	if cfg.Storage.Driver != config.DriverBolt || cfg.Storage.Path != "./data/uptrack.db" {
		t.Errorf("unexpected storage settings: %#v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log settings: %#v", cfg.Log)
	}
	if cfg.Location().String() != "Asia/Tokyo" {
		t.Errorf("unexpected location: %s", cfg.Location())
	}

	var slugs []string
	for _, s := range cfg.Sites {
		slugs = append(slugs, s.Slug)
	}
	if diff := cmp.Diff([]string{"cafe-api", "db", "status-page"}, slugs); diff != "" {
		t.Errorf("unexpected slugs\n%s", diff)
	}

	api0 := cfg.Sites[0]
	if api0.CheckType() != "http" || api0.Method != "HEAD" {
		t.Errorf("unexpected site: %#v", api0)
	}
	if diff := cmp.Diff(classify.Thresholds{
		MaxResponseTime:     500 * time.Millisecond,
		ExpectedStatusCodes: classify.DefaultExpectedStatusCodes,
		BodyDown:            "fatal",
	}, api0.Thresholds()); diff != "" {
		t.Errorf("unexpected thresholds\n%s", diff)
	}
	if cfg.ScheduleOf(api0).Interval() != 5*time.Minute {
		t.Errorf("unexpected schedule: %s", cfg.ScheduleOf(api0))
	}

	db := cfg.Sites[1]
	if db.ProbeOptions().Port != 5432 {
		t.Errorf("unexpected probe options: %#v", db.ProbeOptions())
	}
	if len(db.Thresholds().ExpectedStatusCodes) != 0 {
		t.Errorf("tcp-ping must not check status codes: %v", db.Thresholds().ExpectedStatusCodes)
	}
	if cfg.ScheduleOf(db).String() != "1m0s" || cfg.AttemptsOf(db) != 1 || cfg.TimeoutOf(db) != 500*time.Millisecond {
		t.Errorf("site settings must override global ones: %#v", db)
	}

	status := cfg.Sites[2]
	if diff := cmp.Diff([]int{200}, status.Thresholds().ExpectedStatusCodes); diff != "" {
		t.Errorf("unexpected expected codes\n%s", diff)
	}
	if cfg.AttemptsOf(status) != 3 || cfg.TimeoutOf(status) != 2*time.Second {
		t.Errorf("site must inherit global settings")
	}
}

func TestLoad_env(t *testing.T) {
	t.Setenv("UPTRACK_STORAGE_PATH", "/var/lib/uptrack")
	t.Setenv("UPTRACK_LISTEN", ":9999")
	t.Setenv("UPTRACK_LOG_LEVEL", "warn")

	cfg, err := config.Load("testdata/uptrack.yaml")
	if err != nil {
		t.Fatalf("failed to load: %s", err)
	}

	if cfg.Storage.Path != "/var/lib/uptrack" || cfg.Listen != ":9999" || cfg.Log.Level != "warn" {
		t.Errorf("environment variables must override the file: %#v", cfg)
	}
}

func TestLoad_defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptrack.yaml")
	if err := os.WriteFile(path, []byte("sites:\n  - name: web\n    url: https://example.com\n"), 0644); err != nil {
		t.Fatalf("failed to prepare: %s", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load: %s", err)
	}

	want := config.Default()
	want.Sites = []config.Site{{Name: "web", Slug: "web", URL: "https://example.com"}}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config\n%s", diff)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		Name    string
		Content string
		Key     string
		Message string
	}{
		{"no-sites", "listen: \":80\"\n", "sites", `sites: failed on the "required" rule`},
		{"no-url", "sites:\n  - name: a\n", "sites[0].url", `sites[0].url: failed on the "required" rule`},
		{"bad-check", "sites:\n  - name: a\n    url: x\n    check: smtp\n", "sites[0].check", `failed on the "oneof" rule`},
		{"duplicate", "sites:\n  - name: A b\n    url: x\n  - name: a-B\n    url: y\n", "sites[1].slug", `sites[1].slug: "a-b" is already used by sites[0]`},
		{"schedule", "schedule: sometimes\nsites:\n  - name: a\n    url: x\n", "schedule", "schedule: invalid schedule"},
		{"site-schedule", "sites:\n  - name: a\n    url: x\n    schedule: \"@after -1m\"\n", "sites[0].schedule", "sites[0].schedule: invalid schedule"},
		{"attempts", "attempts: 0\nsites:\n  - name: a\n    url: x\n", "attempts", `attempts: failed on the "min" rule`},
		{"storage", "storage:\n  driver: s3\nsites:\n  - name: a\n    url: x\n", "storage.driver", `storage.driver: failed on the "oneof" rule`},
		{"timezone", "timezone: Mars/Olympus\nsites:\n  - name: a\n    url: x\n", "timezone", "timezone: "},
		{"empty-slug", "sites:\n  - name: \"!!!\"\n    url: x\n", "sites[0].slug", "can not make a slug"},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "uptrack.yaml")
			if err := os.WriteFile(path, []byte(tt.Content), 0644); err != nil {
				t.Fatalf("failed to prepare: %s", err)
			}

			_, err := config.Load(path)
			if !errors.Is(err, api.ErrInvalidConfig) {
				t.Fatalf("expected invalid config error but got %v", err)
			}
			if !strings.Contains(err.Error(), tt.Message) {
				t.Errorf("expected error contains %q but got:\n%s", tt.Message, err)
			}

			var list uterr.List
			if !errors.As(err, &list) {
				t.Fatalf("expected a list of problems but got %T", err)
			}
			if !slices.Contains(list.Keys(), tt.Key) {
				t.Errorf("expected a problem of %q but got %q", tt.Key, list.Keys())
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	if !errors.Is(err, api.ErrInvalidConfig) {
		t.Errorf("expected invalid config error but got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Input  string
		Output string
	}{
		{"Google", "google"},
		{"Café API (EU)", "cafe-api-eu"},
		{"  --Hello,   World!--  ", "hello-world"},
		{"Crème brûlée 2", "creme-brulee-2"},
		{"日本語 サイト", "日本語-サイト"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := config.Slugify(tt.Input); got != tt.Output {
			t.Errorf("%q: expected %q but got %q", tt.Input, tt.Output, got)
		}
	}
}
