package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{"monday", time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, time.May, 19, 0, 0, 0, 0, time.UTC), time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC)},
		{"acrossMonth", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, time.May, 27, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStart(tc.day)
			require.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
			require.False(t, got.After(tc.day))
		})
	}
}

func TestClockDayBoundaries(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on the 15th is still the 14th in New York.
	clock := NewClock(func() time.Time { return time.Date(2024, time.May, 15, 2, 30, 0, 0, time.UTC) }, loc)

	today := clock.Today()
	require.Equal(t, "2024-05-14", clock.DayKey(today))
	require.Equal(t, 0, today.Hour())
	require.Equal(t, 1, DaysBetween(today, NextDay(today)))

	parsed, err := clock.ParseDay("2024-05-14")
	require.NoError(t, err)
	require.True(t, parsed.Equal(today))
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Clocks jump forward on 2024-03-31, making that day 23 hours long.
	monday := time.Date(2024, time.March, 25, 0, 0, 0, 0, loc)
	nextMonday := time.Date(2024, time.April, 1, 0, 0, 0, 0, loc)
	require.Equal(t, 7, DaysBetween(monday, nextMonday))
}

func TestZeroClockDefaults(t *testing.T) {
	var clock Clock
	require.Equal(t, time.UTC, clock.Location())
	require.False(t, clock.Now().IsZero())
}
