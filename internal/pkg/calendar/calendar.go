// Package calendar holds the working-day arithmetic used for every leave
// duration in the system. Holidays are not modelled; only weekends are
// excluded.
package calendar

import "time"

// DateLayout is the wire format for leave dates.
const DateLayout = "2006-01-02"

// Date truncates t to midnight UTC of the same calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now.
func Today(now time.Time) time.Time {
	return Date(now)
}

// IsWorkingDay reports whether t falls on Monday through Friday.
func IsWorkingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// WorkingDays counts weekdays in the inclusive range [start, end].
// It returns 0 when start is after end.
func WorkingDays(start, end time.Time) int {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return 0
	}

	// Whole weeks contribute five days each; only the tail needs walking.
	totalDays := int(end.Sub(start).Hours()/24) + 1
	count := (totalDays / 7) * 5
	d := start.AddDate(0, 0, (totalDays/7)*7)
	for !d.After(end) {
		if IsWorkingDay(d) {
			count++
		}
		d = d.AddDate(0, 0, 1)
	}
	return count
}

// Overlaps reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Date(aStart).After(Date(bEnd)) && !Date(aEnd).Before(Date(bStart))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
