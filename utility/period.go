package utility

import (
	"sort"
	"time"
)

// Period is a half-open time interval [Start, End). A zero Start is treated
// as minus infinity, a zero End as plus infinity.
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: start, End: end}
}

// Unbounded returns the period covering all of time.
func Unbounded() Period {
	return Period{}
}

func (p Period) HasStart() bool {
	return !p.Start.IsZero()
}

func (p Period) HasEnd() bool {
	return !p.End.IsZero()
}

// IsEmpty reports whether the period contains no instant.
func (p Period) IsEmpty() bool {
	if !p.HasStart() || !p.HasEnd() {
		return false
	}
	return !p.Start.Before(p.End)
}

func (p Period) Contains(t time.Time) bool {
	if p.HasStart() && t.Before(p.Start) {
		return false
	}
	if p.HasEnd() && !t.Before(p.End) {
		return false
	}
	return true
}

// Overlaps reports whether both periods share at least one instant.
// Periods that only touch at a boundary do not overlap.
func (p Period) Overlaps(other Period) bool {
	if p.IsEmpty() || other.IsEmpty() {
		return false
	}
	_, ok := p.Intersect(other)
	return ok
}

// Intersect returns the common part of both periods, ok is false when it is empty.
func (p Period) Intersect(other Period) (Period, bool) {
	result := Period{
		Start: laterStart(p.Start, other.Start),
		End:   earlierEnd(p.End, other.End),
	}
	if result.IsEmpty() {
		return Period{}, false
	}
	return result, true
}

// Clip limits the period to the window, an empty result is returned as is.
func (p Period) Clip(window Period) Period {
	result := Period{
		Start: laterStart(p.Start, window.Start),
		End:   earlierEnd(p.End, window.End),
	}
	return result
}

func (p Period) Duration() time.Duration {
	if !p.HasStart() || !p.HasEnd() || p.IsEmpty() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// Boundaries collects the finite start and end instants of all periods,
// sorted and without duplicates.
func Boundaries(periods ...Period) []time.Time {
	var instants []time.Time
	for _, p := range periods {
		if p.HasStart() {
			instants = append(instants, p.Start)
		}
		if p.HasEnd() {
			instants = append(instants, p.End)
		}
	}
	sort.Slice(instants, func(i, j int) bool {
		return instants[i].Before(instants[j])
	})
	unique := instants[:0]
	for i, t := range instants {
		if i > 0 && t.Equal(unique[len(unique)-1]) {
			continue
		}
		unique = append(unique, t)
	}
	return unique
}

func laterStart(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.After(b) {
		return a
	}
	return b
}

func earlierEnd(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.Before(b) {
		return a
	}
	return b
}
