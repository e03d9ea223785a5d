// Package compare holds the period-over-period arithmetic shared by every
// report comparison.
package compare

import "time"

// DeltaPercent computes the percentage change from previous to current.
// Change from zero to a non-zero value is mathematically undefined, so it
// returns nil and callers render "no comparison available" instead of an
// infinite percentage. Zero to zero is no change.
func DeltaPercent(current, previous float64) *float64 {
	if previous == 0 {
		if current == 0 {
			z := 0.0
			return &z
		}
		return nil
	}
	d := (current - previous) / previous * 100
	return &d
}

// PreviousPeriod returns the window of equal length immediately before
// [start, end].
func PreviousPeriod(start, end time.Time) (time.Time, time.Time) {
	days := int(end.Sub(start).Hours()/24) + 1
	return start.AddDate(0, 0, -days), end.AddDate(0, 0, -days)
}

// PreviousMonth returns the first and last day of the calendar month before
// the one containing t. Used for the monthly revenue goal.
func PreviousMonth(t time.Time) (time.Time, time.Time) {
	firstOfThis := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := firstOfThis.AddDate(0, 0, -1)
	first := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, last
}
