package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for dateOfBirth and memberSince.
const DateLayout = "2006-01-02"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal
// whitespace runs. Applied to all name parts before storage.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseDate parses a DateLayout calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}
