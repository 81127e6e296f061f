package memberrepo

import (
	"context"
	"time"

	"github.com/tanc-norcal/membership-api/internal/domain"
)

// Member is the persistence shape used by the member repository. It is an
// internal record, not an HTTP DTO.
type Member struct {
	ID      domain.MemberID
	Subject domain.SubjectID

	FirstName   string
	MiddleName  string
	LastName    string
	DateOfBirth string
	Gender      string
	// Email is stored for the member record; directory responses decide what
	// is safe to expose.
	Email       string
	HomeAddress string

	PhotoURL      string
	PhotoPublicID string

	MemberSince string
	ExpiresAt   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted members.
//
// Result ordering expectations:
// - List returns results ordered by "first last" name ascending (case-insensitive)
//   to keep directory behavior deterministic.
type Repository interface {
	// Upsert writes the member record keyed by ID, creating it when absent.
	// Approval flows route through applicationrepo.Approve instead so the two
	// stores cannot diverge; Upsert exists for profile edits and seeding.
	Upsert(ctx context.Context, m Member) error

	GetByID(ctx context.Context, id domain.MemberID) (Member, error)
	GetBySubject(ctx context.Context, subject domain.SubjectID) (Member, error)

	List(ctx context.Context) ([]Member, error)

	// Delete removes the member record. Media cleanup is the caller's concern.
	Delete(ctx context.Context, id domain.MemberID) error
}
