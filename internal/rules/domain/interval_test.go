package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthIntervalClampsToLastDay(t *testing.T) {
	monthly := Interval{Type: IntervalMonths, Value: 1}

	tests := []struct {
		name   string
		anchor time.Time
		want   time.Time
	}{
		{"jan 31 to feb 28", date(2025, time.January, 31), date(2025, time.February, 28)},
		{"mar 31 to apr 30", date(2025, time.March, 31), date(2025, time.April, 30)},
		{"leap year feb 29", date(2024, time.January, 31), date(2024, time.February, 29)},
		{"mid month unchanged", date(2025, time.May, 15), date(2025, time.June, 15)},
		{"december rolls year", date(2025, time.December, 31), date(2026, time.January, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := monthly.Next(tt.anchor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOccurrenceDoesNotDriftAfterClamping(t *testing.T) {
	monthly := Interval{Type: IntervalMonths, Value: 1}
	anchor := date(2025, time.January, 31)

	var got []time.Time
	for k := 0; k < 4; k++ {
		d, err := monthly.Occurrence(anchor, k)
		require.NoError(t, err)
		got = append(got, d)
	}

	assert.Equal(t, []time.Time{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 31),
		date(2025, time.April, 30),
	}, got)
}

func TestDayIntervalAddsVerbatim(t *testing.T) {
	got, err := Interval{Type: IntervalDays, Value: 45}.Next(date(2025, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 6), got)
}

func TestActualTimestampIsTruncatedToDate(t *testing.T) {
	actual := time.Date(2025, time.February, 10, 16, 45, 12, 0, time.FixedZone("CET", 3600))
	got, err := Interval{Type: IntervalMonths, Value: 1}.Next(actual)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 10), got)
}

func TestUsageIntervalHasNoDate(t *testing.T) {
	_, err := Interval{Type: IntervalUses, Value: 100}.Next(date(2025, time.January, 1))
	assert.ErrorIs(t, err, ErrUsageBasedInterval)
	assert.False(t, Interval{Type: IntervalUses, Value: 1}.IsTimeBased())
}

func TestIntervalRejectsInvalidInput(t *testing.T) {
	_, err := Interval{Type: IntervalDays, Value: 0}.Next(date(2025, time.January, 1))
	assert.Error(t, err)

	_, err = Interval{Type: "weeks", Value: 1}.Next(date(2025, time.January, 1))
	assert.Error(t, err)

	_, err = Interval{Type: IntervalDays, Value: 1}.Occurrence(date(2025, time.January, 1), -1)
	assert.Error(t, err)
}
