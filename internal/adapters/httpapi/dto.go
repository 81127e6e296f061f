package httpapi

import (
	"time"

	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/domain"
)

type imageRefDTO struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

type applicationDTO struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`

	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Email       string `json:"email"`
	HomeAddress string `json:"homeAddress"`

	MemberSince string `json:"memberSince"`

	Headshot  *imageRefDTO `json:"headshot,omitempty"`
	GreenBook *imageRefDTO `json:"greenBook,omitempty"`

	WantCard        bool   `json:"wantCard"`
	RelatedMemberID string `json:"relatedMemberId,omitempty"`

	SubmittedAt time.Time  `json:"submittedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	RejectedAt  *time.Time `json:"rejectedAt,omitempty"`
}

type memberDTO struct {
	ID string `json:"id"`

	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Email       string `json:"email"`
	HomeAddress string `json:"homeAddress"`

	Photo *imageRefDTO `json:"photo,omitempty"`

	MemberSince string    `json:"memberSince"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Status      string    `json:"status,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type adminDTO struct {
	Subject   string `json:"subject"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type profileDTO struct {
	Kind   string     `json:"kind"`
	Admin  *adminDTO  `json:"admin,omitempty"`
	Member *memberDTO `json:"member,omitempty"`
}

type cardDTO struct {
	MemberID    string `json:"memberId"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	MemberSince string `json:"memberSince"`
	ExpiresAt   string `json:"expiresAt"`
	Status      string `json:"status"`
}

func toImageRefDTO(ref *domain.ImageRef) *imageRefDTO {
	if ref == nil {
		return nil
	}
	return &imageRefDTO{URL: ref.URL, PublicID: ref.PublicID}
}

func toApplicationDTO(a domain.Application) applicationDTO {
	return applicationDTO{
		ID:              string(a.ID),
		Type:            string(a.Type),
		Status:          string(a.Status),
		FirstName:       a.Identity.FirstName,
		MiddleName:      a.Identity.MiddleName,
		LastName:        a.Identity.LastName,
		DateOfBirth:     a.Identity.DateOfBirth,
		Gender:          a.Identity.Gender,
		Email:           a.Identity.Email,
		HomeAddress:     a.Identity.HomeAddress,
		MemberSince:     a.MemberSince,
		Headshot:        toImageRefDTO(a.Headshot),
		GreenBook:       toImageRefDTO(a.GreenBook),
		WantCard:        a.WantCard,
		RelatedMemberID: string(a.RelatedMemberID),
		SubmittedAt:     a.SubmittedAt,
		ApprovedAt:      a.ApprovedAt,
		RejectedAt:      a.RejectedAt,
	}
}

func toMemberDTO(m domain.Member, status domain.MemberStatus) memberDTO {
	return memberDTO{
		ID:          string(m.ID),
		FirstName:   m.Identity.FirstName,
		MiddleName:  m.Identity.MiddleName,
		LastName:    m.Identity.LastName,
		DateOfBirth: m.Identity.DateOfBirth,
		Gender:      m.Identity.Gender,
		Email:       m.Identity.Email,
		HomeAddress: m.Identity.HomeAddress,
		Photo:       toImageRefDTO(m.Photo),
		MemberSince: m.MemberSince,
		ExpiresAt:   m.ExpiresAt,
		Status:      string(status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toProfileDTO(p domain.Profile) profileDTO {
	out := profileDTO{Kind: string(p.Kind)}
	if p.Admin != nil {
		out.Admin = &adminDTO{
			Subject:   string(p.Admin.Subject),
			FirstName: p.Admin.FirstName,
			LastName:  p.Admin.LastName,
			Email:     p.Admin.Email,
		}
	}
	if p.Member != nil {
		m := toMemberDTO(*p.Member, "")
		out.Member = &m
	}
	return out
}

func toCardDTO(c members.Card) cardDTO {
	return cardDTO{
		MemberID:    string(c.MemberID),
		Name:        c.Name,
		PhotoURL:    c.PhotoURL,
		MemberSince: c.MemberSince,
		ExpiresAt:   c.ExpiresAt,
		Status:      string(c.Status),
	}
}
