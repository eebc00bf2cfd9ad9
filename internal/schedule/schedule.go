// Package schedule resolves user-supplied date expressions and derives
// campaign completion percentages from the resulting calendar window.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/sailnathona/ImpactHub/internal/models"
)

// DateLayout is the wire format for campaign dates.
const DateLayout = "2006-01-02"

// ResolveDate turns a date expression into a calendar date string.
//
// kind "exact" returns the trimmed literal. Otherwise the value is read as
// "<unit>:<n>", or as a bare integer when kind itself names a unit
// (days, weeks, months), and resolved as today plus n units. Months are
// approximated as 30-day blocks. Anything unparseable yields "" rather
// than an error; callers treat empty as "no date set".
func ResolveDate(kind, value string) string {
	return resolveDateAt(kind, value, time.Now())
}

func resolveDateAt(kind, value string, today time.Time) string {
	if kind == "" {
		return ""
	}
	if kind == "exact" {
		return strings.TrimSpace(value)
	}
	if unit, n, ok := strings.Cut(value, ":"); ok {
		qty, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return ""
		}
		return dateFromOffset(strings.TrimSpace(unit), qty, today)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	return dateFromOffset(kind, qty, today)
}

func dateFromOffset(unit string, n int, today time.Time) string {
	var d time.Duration
	switch unit {
	case "days":
		d = time.Duration(n) * 24 * time.Hour
	case "weeks":
		d = time.Duration(n) * 7 * 24 * time.Hour
	case "months":
		// 30-day blocks, deliberately naive
		d = time.Duration(n) * 30 * 24 * time.Hour
	default:
		return ""
	}
	return today.Add(d).Format(DateLayout)
}

// Progress computes the completion percentage for a date window as of
// today. The boolean is false when either date is missing, unparseable,
// or the window is inverted or empty; in that case the caller must leave
// the stored percentage untouched.
func Progress(start, end string, today time.Time) (int, bool) {
	if start == "" || end == "" {
		return 0, false
	}
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return 0, false
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return 0, false
	}
	if !e.After(s) {
		return 0, false
	}

	// The day is taken from today's calendar date in its own zone, so a
	// process east of UTC does not regress a day at the boundary.
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	totalDays := int(e.Sub(s).Hours() / 24)
	elapsed := int(day.Sub(s).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalDays {
		elapsed = totalDays
	}
	return elapsed * 100 / totalDays, true
}

// Recompute refreshes the campaign's derived progress percentage. It is
// called before any read that exposes the value and after any write that
// can change the underlying dates.
func Recompute(c *models.Campaign, today time.Time) {
	if pct, ok := Progress(c.StartDate, c.EndDate, today); ok {
		c.ProgressPct = pct
	}
}
