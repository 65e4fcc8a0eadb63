// Package period parses period strings such as "5y", "6m", "30d", "max" or
// "2024-01-01:2024-06-30" and resolves them to concrete date windows.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"StockSync/internal/model"
)

type kind int

const (
	relative kind = iota
	explicit
	unbounded
)

// Default is used whenever a period string cannot be understood.
var Default = Spec{kind: relative, years: 5}

// Spec is a parsed period. The zero value is a zero-length window ending now.
type Spec struct {
	kind                kind
	years, months, days int
	start, end          time.Time
}

// Window is an inclusive range of calendar days. A zero Start means unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Unbounded reports whether the window has no lower bound.
func (w Window) Unbounded() bool { return w.Start.IsZero() }

func (w Window) String() string {
	if w.Unbounded() {
		return "..." + w.End.Format(model.DateLayout)
	}
	return w.Start.Format(model.DateLayout) + "..." + w.End.Format(model.DateLayout)
}

// Parse reads a period string. Anything unrecognized falls back to Default.
func Parse(s string) Spec {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "max" {
		return Max()
	}
	if from, to, ok := strings.Cut(s, ":"); ok {
		start, err1 := time.Parse(model.DateLayout, from)
		end, err2 := time.Parse(model.DateLayout, to)
		if err1 != nil || err2 != nil || end.Before(start) {
			return Default
		}
		return Range(start, end)
	}
	if len(s) < 2 {
		return Default
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return Default
	}
	switch s[len(s)-1] {
	case 'y':
		return Years(n)
	case 'm':
		return Months(n)
	case 'd':
		return Days(n)
	}
	return Default
}

// Years is a window covering n years back from now.
func Years(n int) Spec { return Spec{kind: relative, years: n} }

// Months is a window covering n months back from now.
func Months(n int) Spec { return Spec{kind: relative, months: n} }

// Days is a window covering n days back from now.
func Days(n int) Spec { return Spec{kind: relative, days: n} }

// Max covers all available history.
func Max() Spec { return Spec{kind: unbounded} }

// Range is an explicit inclusive window.
func Range(start, end time.Time) Spec {
	return Spec{kind: explicit, start: model.Day(start), end: model.Day(end)}
}

// Year is the calendar year y.
func Year(y int) Spec {
	return Range(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC))
}

// Resolve turns p into a concrete window relative to now.
func (p Spec) Resolve(now time.Time) Window {
	end := model.Day(now)
	switch p.kind {
	case explicit:
		return Window{Start: p.start, End: p.end}
	case unbounded:
		return Window{End: end}
	}
	start := addMonthsClamped(end, -(p.years*12 + p.months))
	start = start.AddDate(0, 0, -p.days)
	return Window{Start: start, End: end}
}

func (p Spec) String() string {
	switch p.kind {
	case explicit:
		return p.start.Format(model.DateLayout) + ":" + p.end.Format(model.DateLayout)
	case unbounded:
		return "max"
	}
	switch {
	case p.years != 0:
		return fmt.Sprintf("%dy", p.years)
	case p.months != 0:
		return fmt.Sprintf("%dm", p.months)
	}
	return fmt.Sprintf("%dd", p.days)
}

// addMonthsClamped shifts d by n months keeping the day of month where
// possible, clamping to the last day of the target month (Feb 29 - 1y = Feb 28).
func addMonthsClamped(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
