package domain

import "time"

// Admin is an authorization record keyed by identity subject. Admin-gated
// operations check for its existence in the admins store on every request.
type Admin struct {
	Subject SubjectID

	FirstName string
	LastName  string
	Email     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProfileKind string

const (
	ProfileAdmin  ProfileKind = "admin"
	ProfileMember ProfileKind = "member"
)

// Profile is the tagged account view returned to an authenticated caller.
// Exactly one of Admin/Member is set, matching Kind.
type Profile struct {
	Kind   ProfileKind
	Admin  *Admin
	Member *Member
}
