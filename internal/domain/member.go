package domain

import "time"

type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberExpired MemberStatus = "expired"
)

// Member is the canonical record of an active or lapsed membership, created on
// first approval and updated in place on renewal approval.
type Member struct {
	ID      MemberID
	Subject SubjectID

	Identity Identity
	Photo    *ImageRef

	// MemberSince is the original join date; it survives renewals.
	MemberSince string // calendar date, DateLayout

	// ExpiresAt is the end of the current validity window, anchored at the
	// most recent approval date.
	ExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusAt derives the membership status at the given instant. It is never
// stored; readers always compare ExpiresAt against their own clock.
func (m Member) StatusAt(now time.Time) MemberStatus {
	if m.ExpiresAt.After(now) {
		return MemberActive
	}
	return MemberExpired
}
