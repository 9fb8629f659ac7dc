package utility

import "time"

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// Occurrences expands a recurrence starting at anchor and repeating every step
// into the occurrences that intersect the window. Each occurrence lasts length,
// capped at one step; zero length means a whole step. Nothing recurs before the
// anchor. The returned periods are not clipped to the window.
func Occurrences(anchor time.Time, step, length time.Duration, window Period) []Period {
	if step <= 0 || anchor.IsZero() {
		return nil
	}
	if length <= 0 || length > step {
		length = step
	}
	k := int64(0)
	if window.HasStart() && window.Start.After(anchor) {
		k = int64(window.Start.Sub(anchor) / step)
	}
	var list []Period
	for {
		start := anchor.Add(time.Duration(k) * step)
		if window.HasEnd() && !start.Before(window.End) {
			break
		}
		occurrence := Period{Start: start, End: start.Add(length)}
		if occurrence.Overlaps(window) {
			list = append(list, occurrence)
		}
		if !window.HasEnd() {
			break
		}
		k++
	}
	return list
}
