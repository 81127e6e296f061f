package applicationrepo

import (
	"context"
	"time"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Application is the persistence shape used by the application repository.
// It is an internal record, not an HTTP DTO.
type Application struct {
	ID      domain.ApplicationID
	Subject domain.SubjectID

	Type   domain.ApplicationType
	Status domain.ApplicationStatus

	FirstName   string
	MiddleName  string
	LastName    string
	DateOfBirth string
	Gender      string
	Email       string
	HomeAddress string

	MemberSince string

	HeadshotURL       string
	HeadshotPublicID  string
	GreenBookURL      string
	GreenBookPublicID string

	WantCard bool

	RelatedMemberID domain.MemberID

	SubmittedAt time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
}

// Repository provides access to persisted applications and owns the
// application-side state transitions.
//
// Result ordering expectations:
// - List returns results ordered by SubmittedAt descending (newest first).
type Repository interface {
	Create(ctx context.Context, a Application) error

	GetByID(ctx context.Context, id domain.ApplicationID) (Application, error)

	// List returns applications, optionally filtered by status. An empty
	// status returns everything.
	List(ctx context.Context, status domain.ApplicationStatus) ([]Application, error)

	// Approve atomically marks a pending application approved at approvedAt
	// and upserts the resulting member record. The status flip is conditional
	// on the application still being pending, so two concurrent approvals
	// cannot both succeed: the loser receives ErrNotPending.
	Approve(ctx context.Context, id domain.ApplicationID, approvedAt time.Time, m memberrepo.Member) error

	// Reject marks a pending application rejected at rejectedAt. Returns
	// ErrNotPending when the application already reached a terminal status.
	Reject(ctx context.Context, id domain.ApplicationID, rejectedAt time.Time) error

	// Delete removes the application regardless of status. Media cleanup is
	// the caller's concern.
	Delete(ctx context.Context, id domain.ApplicationID) error
}
