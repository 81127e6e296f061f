package domain

import "time"

// MembershipTermYears is the length of one membership validity window.
const MembershipTermYears = 5

// Expiry computes the end of the validity window anchored at the given date:
// anchor plus five calendar years, with the day-of-month clamped to the last
// day of the target month (a Feb 29 anchor expires Feb 28 in a non-leap year).
//
// It is pure: same anchor, same result.
func Expiry(anchor time.Time) time.Time {
	y, m, d := anchor.Date()
	y += MembershipTermYears
	if last := daysInMonth(y, m); d > last {
		d = last
	}
	h, min, sec := anchor.Clock()
	return time.Date(y, m, d, h, min, sec, anchor.Nanosecond(), anchor.Location())
}

// ExpiryFromDate computes the validity window for a stored calendar-date
// string. An unparseable date falls back to a window anchored at now; the
// second return reports whether the fallback was taken so the caller can log
// it. Submission-time validation keeps new records off this path; it exists
// for legacy rows only.
func ExpiryFromDate(date string, now time.Time) (time.Time, bool) {
	anchor, err := ParseDate(date)
	if err != nil {
		return Expiry(now), true
	}
	return Expiry(anchor), false
}

func daysInMonth(y int, m time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
