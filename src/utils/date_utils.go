package utils

import (
	"time"
)

// DateOnlyFormat is the layout used for day keys, date query parameters and
// date fields in JSON responses.
const DateOnlyFormat = "2006-01-02"

// CivilDate strips the clock from t as observed in loc, anchoring the
// resulting calendar date at midnight UTC. Anchoring in UTC means the
// difference between two civil dates is always a whole number of 24h periods,
// so day arithmetic cannot be skewed by daylight-saving transitions in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b (b minus a) as
// observed in loc. The count is computed from calendar components, not from
// the raw duration, so a window spanning a DST change still yields an exact
// integer.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(CivilDate(b, loc).Sub(CivilDate(a, loc)) / (24 * time.Hour))
}

// InclusiveDays returns the day count of the window [a, b], counting both
// endpoints. A window from Sunday to the following Saturday yields 7.
func InclusiveDays(a, b time.Time, loc *time.Location) int {
	return DaysBetween(a, b, loc) + 1
}

// AddMonths advances (year, month) by n months and returns the resulting
// year and month. n may be negative.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return t.Year(), t.Month()
}
