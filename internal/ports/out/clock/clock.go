package clock

import "time"

// Clock provides time to the application. Submission, disposition, and expiry
// timestamps all flow through it so tests can pin the calendar.
type Clock interface {
	Now() time.Time
}
