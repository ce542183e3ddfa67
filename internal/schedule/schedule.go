// Package schedule parses the probe schedules of sites.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// CurrentTime returns current time.
// This variable is for testing purpose.
var CurrentTime = time.Now

var (
	ErrInvalidSchedule = errors.New("invalid schedule")

	DefaultSchedule = Schedule(IntervalSchedule{5 * time.Minute})

	never = time.UnixMicro(math.MaxInt64)
)

// Schedule is a cron.Schedule that knows how often it fires.
type Schedule interface {
	cron.Schedule
	fmt.Stringer

	// RunOnStart reports whether the job should run once right after start.
	RunOnStart() bool

	// Interval is the typical time between two runs, or 0 if the schedule does not repeat.
	// It caps the downtime that one down outcome accounts for.
	Interval() time.Duration
}

// Parse parses an interval like "5m", a cron spec like "*/5 * * * *", "@after 10m", or "@reboot".
func Parse(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)

	if strings.HasPrefix(spec, "@after") || spec == "@reboot" {
		return ParseAfter(spec)
	}

	if s, err := ParseInterval(spec); err == nil {
		return s, nil
	}

	return ParseCron(spec)
}

type IntervalSchedule struct {
	Every time.Duration
}

func ParseInterval(spec string) (IntervalSchedule, error) {
	d, err := time.ParseDuration(spec)
	if err != nil {
		return IntervalSchedule{}, fmt.Errorf("%w: %s", ErrInvalidSchedule, err)
	}
	if d <= 0 {
		return IntervalSchedule{}, fmt.Errorf("%w: interval must be positive: %q", ErrInvalidSchedule, spec)
	}
	return IntervalSchedule{d}, nil
}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Every)
}

func (s IntervalSchedule) String() string {
	return s.Every.String()
}

func (s IntervalSchedule) RunOnStart() bool {
	return true
}

func (s IntervalSchedule) Interval() time.Duration {
	return s.Every
}

type CronSchedule struct {
	spec     string
	schedule cron.Schedule
	interval time.Duration
}

var cronDelimiter = regexp.MustCompile("[ \t]+")

// cronAliases maps the descriptors to specs that the day-of-week-optional parser accepts.
var cronAliases = map[string]string{
	"@yearly":   "0 0 1 1 ?",
	"@annually": "0 0 1 1 ?",
	"@monthly":  "0 0 1 * ?",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * ?",
	"@hourly":   "0 * * * ?",
}

// normalizeCron expands an alias, or fills the omitted day-of-week field with "?".
func normalizeCron(spec string) string {
	if alias, ok := cronAliases[spec]; ok {
		return alias
	}

	fields := cronDelimiter.Split(strings.TrimSpace(spec), -1)
	if len(fields) == 4 {
		fields = append(fields, "?")
	}
	return strings.Join(fields, " ")
}

func ParseCron(spec string) (CronSchedule, error) {
	spec = normalizeCron(spec)

	s, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional).Parse(spec)
	if err != nil {
		return CronSchedule{}, fmt.Errorf("%w: %s", ErrInvalidSchedule, err)
	}

	return CronSchedule{
		spec:     spec,
		schedule: s,
		interval: shortestGap(s),
	}, nil
}

// shortestGap finds the shortest time between runs of s in a sample of runs.
func shortestGap(s cron.Schedule) time.Duration {
	t := s.Next(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))

	var gap time.Duration
	for i := 0; i < 64; i++ {
		n := s.Next(t)
		if n.IsZero() {
			break
		}
		if d := n.Sub(t); gap == 0 || d < gap {
			gap = d
		}
		t = n
	}
	return gap
}

func (s CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s CronSchedule) String() string {
	return s.spec
}

func (s CronSchedule) RunOnStart() bool {
	return false
}

func (s CronSchedule) Interval() time.Duration {
	return s.interval
}

// AfterSchedule runs only once, at Delay after parsing.
type AfterSchedule struct {
	Delay time.Duration
	At    time.Time
}

// ParseAfter parses "@after <duration>" or "@reboot".
// "@after 0s" is the same as "@reboot".
func ParseAfter(spec string) (Schedule, error) {
	if spec == "@reboot" {
		return RebootSchedule{}, nil
	}

	raw, ok := strings.CutPrefix(spec, "@after ")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchedule, spec)
	}

	delay, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchedule, err)
	}

	switch {
	case delay < 0:
		return nil, fmt.Errorf("%w: negative delay: %q", ErrInvalidSchedule, spec)
	case delay == 0:
		return RebootSchedule{}, nil
	}

	return AfterSchedule{
		Delay: delay,
		At:    CurrentTime().Add(delay),
	}, nil
}

func (s AfterSchedule) Next(t time.Time) time.Time {
	if t.After(s.At) {
		return never
	}
	return s.At
}

func (s AfterSchedule) String() string {
	return "@after " + s.Delay.String()
}

func (s AfterSchedule) RunOnStart() bool {
	return false
}

func (s AfterSchedule) Interval() time.Duration {
	return 0
}

// RebootSchedule runs only once, right after start.
type RebootSchedule struct{}

func (s RebootSchedule) Next(t time.Time) time.Time {
	return never
}

func (s RebootSchedule) String() string {
	return "@reboot"
}

func (s RebootSchedule) RunOnStart() bool {
	return true
}

func (s RebootSchedule) Interval() time.Duration {
	return 0
}
