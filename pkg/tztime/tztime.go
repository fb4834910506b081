// Package tztime converts absolute instants into human-readable
// representations for arbitrary IANA timezones, and computes relative
// offsets and day shifts between zones at the same instant.
//
// All functions here are display functions, not validation functions:
// an unresolvable timezone identifier degrades to UTC behavior instead
// of returning an error, so a render path can never fail on bad data.
package tztime

import (
	"fmt"
	"time"
)

// FormattedTime is the derived, render-ready view of an instant in a
// specific timezone. It is recomputed on every tick and never stored.
type FormattedTime struct {
	Time     string `json:"time"`     // 12-hour time with seconds, e.g. "03:04:05 PM"
	Date     string `json:"date"`     // short human date, e.g. "Mon, Jan 2"
	Time24   string `json:"time24"`   // 24-hour "15:04"
	DateISO  string `json:"dateISO"`  // ISO calendar date "2006-01-02"
	Offset   string `json:"offset"`   // signed UTC offset "+09:00" / "-05:00", hour granularity
	DayLabel string `json:"dayLabel"` // day shift relative to UTC, see DayLabel
}

// Location resolves an IANA timezone identifier, falling back to UTC
// when the identifier is unknown to the timezone database.
func Location(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatInstant renders an instant in the given timezone.
//
// The offset string is reported at hour granularity: zones with a
// half-hour or 45-minute offset (e.g. Asia/Kolkata at +05:30) are
// truncated toward zero, so Kolkata reports "+05:00". The minute-precise
// offset still flows into TimeDifferenceLabel, which is where sub-hour
// zones actually matter to a reader.
func FormatInstant(t time.Time, tz string) FormattedTime {
	local := t.In(Location(tz))
	_, offsetSec := local.Zone()

	// Integer division truncates toward zero for both signs.
	offsetHours := offsetSec / 3600
	sign := "+"
	if offsetHours < 0 {
		sign = "-"
		offsetHours = -offsetHours
	}

	return FormattedTime{
		Time:     local.Format("03:04:05 PM"),
		Date:     local.Format("Mon, Jan 2"),
		Time24:   local.Format("15:04"),
		DateISO:  local.Format("2006-01-02"),
		Offset:   fmt.Sprintf("%s%02d:00", sign, offsetHours),
		DayLabel: DayLabel(t, tz, "UTC"),
	}
}

// TimeDifferenceLabel describes how far toTZ's wall clock is from
// fromTZ's at the same instant.
//
// It compares the wall-clock values each zone observes rather than
// subtracting raw UTC offsets, so daylight-saving discrepancies are
// reflected exactly as a human in each zone would see them. Differences
// under an hour render as "Same time"; otherwise "3h ahead",
// "9h 30m behind" and so on, where "ahead" means toTZ's clock reads
// later.
func TimeDifferenceLabel(t time.Time, fromTZ, toTZ string) string {
	diffMin := wallClockMinutes(t.In(Location(toTZ))) - wallClockMinutes(t.In(Location(fromTZ)))

	abs := diffMin
	if abs < 0 {
		abs = -abs
	}
	if abs < 60 {
		return "Same time"
	}

	hours := abs / 60
	minutes := abs % 60
	label := fmt.Sprintf("%dh", hours)
	if minutes > 0 {
		label = fmt.Sprintf("%dh %dm", hours, minutes)
	}

	if diffMin > 0 {
		return label + " ahead"
	}
	return label + " behind"
}

// wallClockMinutes flattens a zoned time into minutes on a shared
// axis so two wall clocks can be subtracted. The date is included:
// Tokyo late on Tuesday minus Los Angeles on Monday evening must span
// the day boundary, not wrap at midnight.
func wallClockMinutes(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC).Unix() / 60
}

// IsDaytime reports whether the local hour in tz falls in [6, 18).
// This is a coarse heuristic, not a sunrise/sunset computation.
// An unresolvable timezone counts as daytime.
func IsDaytime(t time.Time, tz string) bool {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return true
	}
	hour := t.In(loc).Hour()
	return hour >= 6 && hour < 18
}

// DayLabel compares the calendar date in tz against refTZ at the same
// instant and returns "Next day", "Previous day" or "Same day". Full
// dates are compared (not just day-of-month), so month and year
// boundaries label correctly. Resolution failure on either zone yields
// the empty string.
func DayLabel(t time.Time, tz, refTZ string) string {
	targetLoc, err := time.LoadLocation(tz)
	if err != nil {
		return ""
	}
	refLoc, err := time.LoadLocation(refTZ)
	if err != nil {
		return ""
	}

	target := t.In(targetLoc)
	ref := t.In(refLoc)

	ty, tm, td := target.Date()
	ry, rm, rd := ref.Date()

	targetDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	refDay := time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC)

	switch {
	case targetDay.After(refDay):
		return "Next day"
	case targetDay.Before(refDay):
		return "Previous day"
	default:
		return "Same day"
	}
}

// ResolveWallClockToInstant interprets a user-entered local date and
// time ("2006-01-02", "15:04") as occurring in tz and returns the
// absolute instant. The UTC offset in force on that calendar date is
// used, not today's, so entering a summer date for a DST zone resolves
// with the summer offset. An unresolvable timezone resolves as UTC.
func ResolveWallClockToInstant(dateStr, timeStr, tz string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, Location(tz))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing wall-clock time %q %q: %w", dateStr, timeStr, err)
	}
	return t, nil
}
