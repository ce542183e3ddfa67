// Package config loads the configuration file of uptrack.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/uptrack/uptrack/internal/classify"
	"github.com/uptrack/uptrack/internal/schedule"
	"github.com/uptrack/uptrack/internal/scheme"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// EnvPrefix is the prefix of environment variables that override the file.
// For example, UPTRACK_STORAGE_PATH overrides storage.path.
const EnvPrefix = "UPTRACK_"

const (
	DriverFile   = "file"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

type Config struct {
	Listen   string        `koanf:"listen"`
	Schedule string        `koanf:"schedule" validate:"required"`
	Attempts int           `koanf:"attempts" validate:"min=1,max=100"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`

	// Timezone decides the calendar dates of daily downtime. Empty means UTC.
	Timezone string `koanf:"timezone"`

	Log     LogConfig     `koanf:"log"`
	Storage StorageConfig `koanf:"storage"`
	Sites   []Site        `koanf:"sites" validate:"required,min=1,dive"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=auto json console"`
}

type StorageConfig struct {
	Driver string `koanf:"driver" validate:"oneof=file bolt memory"`
	Path   string `koanf:"path" validate:"required_unless=Driver memory"`
}

// Site is the settings of a monitored site.
type Site struct {
	Name  string `koanf:"name" validate:"required"`
	Slug  string `koanf:"slug"`
	Check string `koanf:"check" validate:"omitempty,oneof=http tcp-ping udp-ping ping ping4 ping6 dummy"`
	URL   string `koanf:"url" validate:"required"`
	Port  int    `koanf:"port" validate:"min=0,max=65535"`

	Method       string   `koanf:"method"`
	Headers      []string `koanf:"headers"`
	Body         string   `koanf:"body"`
	MaxRedirects int      `koanf:"maxRedirects" validate:"min=-1"`
	Insecure     bool     `koanf:"insecure"`

	ExpectedStatusCodes []int `koanf:"expectedStatusCodes" validate:"dive,min=100,max=599"`

	// MaxResponseTime is in milliseconds.
	MaxResponseTime int `koanf:"maxResponseTime" validate:"min=0"`

	BodyDown                  string `koanf:"bodyDown"`
	BodyDownIfTextMissing     string `koanf:"bodyDownIfTextMissing"`
	BodyDegraded              string `koanf:"bodyDegraded"`
	BodyDegradedIfTextMissing string `koanf:"bodyDegradedIfTextMissing"`

	// Schedule, Attempts, and Timeout override the global settings if set.
	Schedule string        `koanf:"schedule"`
	Attempts int           `koanf:"attempts" validate:"min=0,max=100"`
	Timeout  time.Duration `koanf:"timeout" validate:"min=0"`
}

// Default returns the configuration that is used for omitted keys.
func Default() Config {
	return Config{
		Listen:   ":9000",
		Schedule: "5m",
		Attempts: 5,
		Timeout:  5 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   "./data",
		},
	}
}

// envKey converts UPTRACK_STORAGE_PATH to storage.path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

// Load reads the YAML file at path, and then applies environment variables.
// The path can be empty to use only environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, uterr.New(api.ErrInvalidConfig, err, "failed to read %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, uterr.New(api.ErrInvalidConfig, err, "failed to read environment variables")
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, uterr.New(api.ErrInvalidConfig, err, "failed to parse configuration")
	}

	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var validate = func() *validator.Validate {
	v := validator.New()

	// Report the keys of the file, like sites[0].url, instead of the Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}()

// validationKey converts the namespace "Config.sites[0].url" to "sites[0].url".
func validationKey(ve validator.FieldError) string {
	_, key, _ := strings.Cut(ve.Namespace(), ".")
	return key
}

func siteKey(i int, field string) string {
	if field == "" {
		return fmt.Sprintf("sites[%d]", i)
	}
	return fmt.Sprintf("sites[%d].%s", i, field)
}

// Normalize fills the slugs of sites, and validates the configuration.
// The error is a uterr.List that has a problem per key.
func (c *Config) Normalize() error {
	errs := &uterr.ListBuilder{What: api.ErrInvalidConfig}

	if err := validate.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			for _, ve := range ves {
				errs.Addf(validationKey(ve), "failed on the %q rule", ve.Tag())
			}
		} else {
			errs.Add("", err)
		}
	}

	if _, err := schedule.Parse(c.Schedule); err != nil {
		errs.Add("schedule", err)
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs.Add("timezone", err)
		}
	}

	seen := make(map[string]int)
	for i := range c.Sites {
		s := &c.Sites[i]

		if s.Slug == "" {
			s.Slug = Slugify(s.Name)
		}
		if s.Slug == "" {
			errs.Addf(siteKey(i, "slug"), "can not make a slug from name %q", s.Name)
			continue
		}
		if j, ok := seen[s.Slug]; ok {
			errs.Addf(siteKey(i, "slug"), "%q is already used by sites[%d]", s.Slug, j)
		}
		seen[s.Slug] = i

		if s.Schedule != "" {
			if _, err := schedule.Parse(s.Schedule); err != nil {
				errs.Add(siteKey(i, "schedule"), err)
			}
		}
	}

	return errs.Build()
}

// Location returns the time zone for calendar dates.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ScheduleOf returns the schedule of the site.
func (c Config) ScheduleOf(s Site) schedule.Schedule {
	spec := s.Schedule
	if spec == "" {
		spec = c.Schedule
	}
	if sc, err := schedule.Parse(spec); err == nil {
		return sc
	}
	return schedule.DefaultSchedule
}

// AttemptsOf returns the number of sample rounds of the site.
func (c Config) AttemptsOf(s Site) int {
	if s.Attempts > 0 {
		return s.Attempts
	}
	return c.Attempts
}

// TimeoutOf returns the per-attempt timeout of the site.
func (c Config) TimeoutOf(s Site) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return c.Timeout
}

// CheckType returns the check type of the site, defaulting to http.
func (s Site) CheckType() string {
	if s.Check == "" {
		return "http"
	}
	return s.Check
}

// ProbeOptions converts the site to the options of scheme.NewProber.
func (s Site) ProbeOptions() scheme.Options {
	return scheme.Options{
		Port:         s.Port,
		Method:       s.Method,
		Headers:      s.Headers,
		Body:         s.Body,
		MaxRedirects: s.MaxRedirects,
		Insecure:     s.Insecure,
	}
}

// Thresholds converts the site to the settings of classify.Classify.
// HTTP sites without expectedStatusCodes accept the 2xx and 3xx codes.
func (s Site) Thresholds() classify.Thresholds {
	codes := s.ExpectedStatusCodes
	if len(codes) == 0 && s.CheckType() == "http" {
		codes = classify.DefaultExpectedStatusCodes
	}

	return classify.Thresholds{
		MaxResponseTime:           time.Duration(s.MaxResponseTime) * time.Millisecond,
		ExpectedStatusCodes:       codes,
		BodyDown:                  s.BodyDown,
		BodyDownIfTextMissing:     s.BodyDownIfTextMissing,
		BodyDegraded:              s.BodyDegraded,
		BodyDegradedIfTextMissing: s.BodyDegradedIfTextMissing,
	}
}

// String implements fmt.Stringer.
func (s Site) String() string {
	return fmt.Sprintf("%s (%s %s)", s.Slug, s.CheckType(), s.URL)
}
