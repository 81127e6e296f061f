package domain

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type ApplicationType string

const (
	ApplicationNew     ApplicationType = "new"
	ApplicationRenewal ApplicationType = "renewal"
)

// ImageRef points at an uploaded image in the media store.
type ImageRef struct {
	URL      string
	PublicID string
}

// Identity is the applicant identity block shared by applications and members.
type Identity struct {
	FirstName   string
	MiddleName  string
	LastName    string
	DateOfBirth string // calendar date, DateLayout
	Gender      string
	Email       string
	HomeAddress string
}

// FullName renders the directory display form, "First Last".
func (id Identity) FullName() string {
	return NormalizeHumanName(id.FirstName + " " + id.LastName)
}

// Application is a submitted request for new membership or renewal.
//
// Status moves exactly once from pending to a terminal value (approved or
// rejected); terminal applications can only be deleted.
type Application struct {
	ID      ApplicationID
	Subject SubjectID

	Type   ApplicationType
	Status ApplicationStatus

	Identity    Identity
	MemberSince string // calendar date, DateLayout; preserved across renewals

	Headshot  *ImageRef
	GreenBook *ImageRef // proof-of-membership image, new applications only

	WantCard bool

	// RelatedMemberID links a renewal application to the member it renews.
	RelatedMemberID MemberID

	SubmittedAt time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
}
