package applications

import "github.com/tanc-norcal/membership-api/internal/domain"

// SubmitInput is a draft application as provided by the applicant.
type SubmitInput struct {
	Type    domain.ApplicationType
	Subject domain.SubjectID

	Identity    domain.Identity
	MemberSince string

	Headshot  *domain.ImageRef
	GreenBook *domain.ImageRef

	WantCard bool

	// RelatedMemberID must reference an existing member for renewals.
	RelatedMemberID domain.MemberID
}

// ListFilter narrows administrative review listings.
type ListFilter struct {
	// Status filters by lifecycle status; empty means all.
	Status domain.ApplicationStatus
}
