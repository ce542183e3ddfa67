package uptrack

import (
	"strconv"
	"time"
)

// Window is a look-back period of statistics.
type Window int8

const (
	WindowDay Window = iota
	WindowWeek
	WindowMonth
	WindowYear
	WindowAll
)

// Windows is the list of all windows, from the shortest to the longest.
var Windows = []Window{WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll}

// Duration returns the look-back length of the window.
// WindowAll has no cutoff and returns 0.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	case WindowMonth:
		return 30 * 24 * time.Hour
	case WindowYear:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// Cutoff returns the oldest time included in the window.
func (w Window) Cutoff(now time.Time) time.Time {
	if w == WindowAll {
		return time.Time{}
	}
	return now.Add(-w.Duration())
}

// String implements fmt.Stringer.
func (w Window) String() string {
	switch w {
	case WindowDay:
		return "day"
	case WindowWeek:
		return "week"
	case WindowMonth:
		return "month"
	case WindowYear:
		return "year"
	default:
		return "all"
	}
}

// Windowed holds a value for each Window.
type Windowed[T any] struct {
	Day   T `json:"day"`
	Week  T `json:"week"`
	Month T `json:"month"`
	Year  T `json:"year"`
	All   T `json:"all"`
}

// Get returns the value for the window.
func (w Windowed[T]) Get(x Window) T {
	switch x {
	case WindowDay:
		return w.Day
	case WindowWeek:
		return w.Week
	case WindowMonth:
		return w.Month
	case WindowYear:
		return w.Year
	default:
		return w.All
	}
}

// Set updates the value for the window.
func (w *Windowed[T]) Set(x Window, v T) {
	switch x {
	case WindowDay:
		w.Day = v
	case WindowWeek:
		w.Week = v
	case WindowMonth:
		w.Month = v
	case WindowYear:
		w.Year = v
	default:
		w.All = v
	}
}

// Percent is a percentage in the range 0 to 100.
// It is always formatted with two decimal places.
type Percent float64

// String implements fmt.Stringer.
func (p Percent) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

// MarshalText implements encoding.TextMarshaler.
func (p Percent) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Percent) UnmarshalText(text []byte) error {
	f, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return err
	}
	*p = Percent(f)
	return nil
}

// DateLayout is the layout of the keys of WindowStats.DailyMinutesDown.
const DateLayout = "2006-01-02"

// WindowStats is the availability and latency statistics of a site.
type WindowStats struct {
	Uptime Windowed[Percent] `json:"uptime"`

	// ResponseTime is the average response time in milliseconds.
	ResponseTime Windowed[float64] `json:"responseTime"`

	// DailyMinutesDown maps calendar dates (DateLayout) to minutes of downtime.
	// Dates without downtime are omitted.
	DailyMinutesDown map[string]float64 `json:"dailyMinutesDown"`
}
