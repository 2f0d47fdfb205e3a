package reports

import (
	"time"

	"reda-store/internal/apperr"
)

type Period string

const (
	Daily   Period = "daily"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
	// Custom is an arbitrary run of whole days, used by the assistant.
	Custom Period = "custom"
)

// ParsePeriod defaults to daily. Any value other than daily or monthly
// reports on the whole year.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case "", Daily:
		return Daily
	case Monthly:
		return Monthly
	default:
		return Yearly
	}
}

// Window is an inclusive [Start, End] range in the store time zone.
type Window struct {
	Type  Period
	Start time.Time
	End   time.Time
}

// WindowFor returns the period containing anchor, ending on the last
// millisecond of the day, month or year.
func WindowFor(p Period, anchor time.Time) Window {
	y, m, d := anchor.Date()
	loc := anchor.Location()

	var start, next time.Time
	switch p {
	case Daily:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 1)
	case Monthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	default:
		p = Yearly
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	}
	return Window{Type: p, Start: start, End: next.Add(-time.Millisecond)}
}

// Label is the period name used in exports: 2026-10-19, 2026-10 or 2026.
func (w Window) Label() string {
	switch w.Type {
	case Daily:
		return w.Start.Format("2006-01-02")
	case Monthly:
		return w.Start.Format("2006-01")
	case Custom:
		return w.Start.Format("2006-01-02") + "_" + w.End.Format("2006-01-02")
	default:
		return w.Start.Format("2006")
	}
}

// ParseAnchor reads a YYYY-MM-DD date in loc. Empty means today.
func ParseAnchor(date string, loc *time.Location, now time.Time) (time.Time, error) {
	if date == "" {
		return now.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return t, nil
}

// RangeWindow covers whole days from the first date through the last, both
// YYYY-MM-DD in loc.
func RangeWindow(from, to string, loc *time.Location) (Window, error) {
	start, err := time.ParseInLocation("2006-01-02", from, loc)
	if err != nil {
		return Window{}, apperr.Validation("start date must be YYYY-MM-DD")
	}
	last, err := time.ParseInLocation("2006-01-02", to, loc)
	if err != nil {
		return Window{}, apperr.Validation("end date must be YYYY-MM-DD")
	}
	if last.Before(start) {
		return Window{}, apperr.Validation("end date is before start date")
	}
	end := last.AddDate(0, 0, 1).Add(-time.Millisecond)
	return Window{Type: Custom, Start: start, End: end}, nil
}
