package tztime

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInstant(t *testing.T) {
	// 2024-01-15 15:30:45 UTC, a Monday.
	instant := time.Date(2024, 1, 15, 15, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		tz   string
		want FormattedTime
	}{
		{
			name: "UTC",
			tz:   "UTC",
			want: FormattedTime{
				Time:     "03:30:45 PM",
				Date:     "Mon, Jan 15",
				Time24:   "15:30",
				DateISO:  "2024-01-15",
				Offset:   "+00:00",
				DayLabel: "Same day",
			},
		},
		{
			name: "Tokyo crosses midnight",
			tz:   "Asia/Tokyo",
			want: FormattedTime{
				Time:     "12:30:45 AM",
				Date:     "Tue, Jan 16",
				Time24:   "00:30",
				DateISO:  "2024-01-16",
				Offset:   "+09:00",
				DayLabel: "Next day",
			},
		},
		{
			name: "New York standard time",
			tz:   "America/New_York",
			want: FormattedTime{
				Time:     "10:30:45 AM",
				Date:     "Mon, Jan 15",
				Time24:   "10:30",
				DateISO:  "2024-01-15",
				Offset:   "-05:00",
				DayLabel: "Same day",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInstant(instant, tt.tz))
		})
	}
}

func TestFormatInstantTruncatesSubHourOffsets(t *testing.T) {
	instant := time.Date(2024, 1, 15, 15, 30, 45, 0, time.UTC)

	// +05:30 truncates toward zero to +05:00.
	assert.Equal(t, "+05:00", FormatInstant(instant, "Asia/Kolkata").Offset)
	// +05:45 likewise.
	assert.Equal(t, "+05:00", FormatInstant(instant, "Asia/Kathmandu").Offset)
	// -03:30 truncates toward zero, not toward negative infinity.
	assert.Equal(t, "-03:00", FormatInstant(instant, "America/St_Johns").Offset)
}

func TestFormatInstantUnresolvableZoneFallsBackToUTC(t *testing.T) {
	instant := time.Date(2024, 1, 15, 15, 30, 45, 0, time.UTC)

	got := FormatInstant(instant, "Not/AZone")
	assert.Equal(t, "15:30", got.Time24)
	assert.Equal(t, "2024-01-15", got.DateISO)
	assert.Equal(t, "+00:00", got.Offset)
	assert.Empty(t, got.DayLabel)
}

func TestFormatInstantOffsetTracksDST(t *testing.T) {
	winter := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "-05:00", FormatInstant(winter, "America/New_York").Offset)
	assert.Equal(t, "-04:00", FormatInstant(summer, "America/New_York").Offset)
}

func TestResolveWallClockRoundTrip(t *testing.T) {
	zones := []string{
		"UTC",
		"Europe/London",
		"America/New_York",
		"Asia/Tokyo",
		"Australia/Sydney",
	}

	for _, tz := range zones {
		t.Run(tz, func(t *testing.T) {
			instant, err := ResolveWallClockToInstant("2024-03-20", "08:45", tz)
			require.NoError(t, err)

			got := FormatInstant(instant, tz)
			assert.Equal(t, "2024-03-20", got.DateISO)
			assert.Equal(t, "08:45", got.Time24)
		})
	}
}

func TestResolveWallClockUsesOffsetOfTargetDate(t *testing.T) {
	// Same wall-clock time on either side of a DST transition must map
	// to different instants for a zone that observes DST.
	winter, err := ResolveWallClockToInstant("2024-01-15", "12:00", "America/New_York")
	require.NoError(t, err)
	summer, err := ResolveWallClockToInstant("2024-07-15", "12:00", "America/New_York")
	require.NoError(t, err)

	assert.Equal(t, 17, winter.UTC().Hour(), "noon EST is 17:00 UTC")
	assert.Equal(t, 16, summer.UTC().Hour(), "noon EDT is 16:00 UTC")
}

func TestResolveWallClockRejectsGarbage(t *testing.T) {
	_, err := ResolveWallClockToInstant("not-a-date", "12:00", "UTC")
	assert.Error(t, err)

	_, err = ResolveWallClockToInstant("2024-01-15", "25:99", "UTC")
	assert.Error(t, err)
}

func TestTimeDifferenceLabel(t *testing.T) {
	winter := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"identical zones", "Asia/Tokyo", "Asia/Tokyo", "Same time"},
		{"London to Tokyo in winter", "Europe/London", "Asia/Tokyo", "9h ahead"},
		{"Tokyo to London in winter", "Asia/Tokyo", "Europe/London", "9h behind"},
		{"London to Kolkata keeps the half hour", "Europe/London", "Asia/Kolkata", "5h 30m ahead"},
		{"under an hour is same time", "Australia/Sydney", "Australia/Adelaide", "Same time"},
		{"New York to Los Angeles", "America/New_York", "America/Los_Angeles", "3h behind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeDifferenceLabel(winter, tt.from, tt.to))
		})
	}
}

func TestTimeDifferenceLabelIsAntisymmetric(t *testing.T) {
	instants := []time.Time{
		time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 15, 3, 30, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC),
	}

	for _, instant := range instants {
		forward := TimeDifferenceLabel(instant, "Europe/London", "Asia/Kolkata")
		backward := TimeDifferenceLabel(instant, "Asia/Kolkata", "Europe/London")

		require.True(t, strings.HasSuffix(forward, " ahead"), forward)
		require.True(t, strings.HasSuffix(backward, " behind"), backward)
		assert.Equal(t, strings.TrimSuffix(forward, " ahead"), strings.TrimSuffix(backward, " behind"))
	}
}

func TestIsDaytime(t *testing.T) {
	zones := []string{"UTC", "Asia/Tokyo", "America/Los_Angeles", "Asia/Kolkata"}

	for _, tz := range zones {
		t.Run(tz, func(t *testing.T) {
			loc, err := time.LoadLocation(tz)
			require.NoError(t, err)

			noon := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)
			midnight := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)

			assert.True(t, IsDaytime(noon, tz), "local noon is daytime")
			assert.False(t, IsDaytime(midnight, tz), "local midnight is night")
		})
	}

	assert.True(t, IsDaytime(time.Now(), "Not/AZone"), "unresolvable zone defaults to daytime")
}

func TestDayLabel(t *testing.T) {
	tests := []struct {
		name    string
		instant time.Time
		tz      string
		refTZ   string
		want    string
	}{
		{
			name:    "Tokyo past midnight is next day",
			instant: time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC),
			tz:      "Asia/Tokyo",
			refTZ:   "UTC",
			want:    "Next day",
		},
		{
			name:    "Los Angeles before UTC midnight is previous day",
			instant: time.Date(2024, 1, 15, 3, 30, 0, 0, time.UTC),
			tz:      "America/Los_Angeles",
			refTZ:   "UTC",
			want:    "Previous day",
		},
		{
			name:    "same calendar day",
			instant: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			tz:      "Europe/Paris",
			refTZ:   "UTC",
			want:    "Same day",
		},
		{
			name:    "month boundary still reads next day",
			instant: time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC),
			tz:      "Asia/Tokyo",
			refTZ:   "UTC",
			want:    "Next day",
		},
		{
			name:    "year boundary still reads next day",
			instant: time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
			tz:      "Asia/Tokyo",
			refTZ:   "UTC",
			want:    "Next day",
		},
		{
			name:    "unresolvable target yields empty label",
			instant: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			tz:      "Not/AZone",
			refTZ:   "UTC",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayLabel(tt.instant, tt.tz, tt.refTZ))
		})
	}
}
