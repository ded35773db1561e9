package search

import "time"

// DayRange returns the half-open interval [midnight, next midnight) of the
// calendar day d falls on, in d's own location.
func DayRange(d time.Time) (time.Time, time.Time) {
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return start, start.AddDate(0, 0, 1)
}
