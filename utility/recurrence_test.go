package utility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrencesDaily(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	window := NewPeriod(
		time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 19, 9, 0, 0, 0, time.UTC),
	)

	list := Occurrences(anchor, Day, 2*time.Hour, window)
	require.Len(t, list, 2)
	assert.Equal(t, time.Date(2024, 1, 18, 8, 0, 0, 0, time.UTC), list[0].Start)
	assert.Equal(t, time.Date(2024, 1, 18, 10, 0, 0, 0, time.UTC), list[0].End)
	assert.Equal(t, time.Date(2024, 1, 19, 8, 0, 0, 0, time.UTC), list[1].Start)
}

func TestOccurrencesDailyWithoutLengthCoverTheWindow(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	window := NewPeriod(
		time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 18, 12, 0, 0, 0, time.UTC),
	)

	list := Occurrences(anchor, Day, 0, window)
	require.Len(t, list, 2)
	assert.Equal(t, time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC), list[0].Start)
	assert.Equal(t, list[0].End, list[1].Start)
}

func TestOccurrencesWeekly(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	window := NewPeriod(
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
	)

	list := Occurrences(anchor, Week, 48*time.Hour, window)
	require.Len(t, list, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), list[0].Start)
}

func TestOccurrencesNeverBeforeAnchor(t *testing.T) {
	anchor := time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC)
	window := NewPeriod(
		time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC),
	)

	list := Occurrences(anchor, Day, time.Hour, window)
	require.Len(t, list, 1)
	assert.Equal(t, anchor, list[0].Start)

	assert.Empty(t, Occurrences(anchor, Day, time.Hour, NewPeriod(window.Start, anchor)))
}
