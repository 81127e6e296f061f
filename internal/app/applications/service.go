package applications

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/applicationrepo"
	clockport "github.com/tanc-norcal/membership-api/internal/ports/out/clock"
	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Service is the application lifecycle engine. Every state change to an
// application, and the member record derived from approval, goes through it.
type Service struct {
	apps    applicationrepo.Repository
	members memberrepo.Repository
	media   mediastore.Store
	clk     clockport.Clock
	log     zerolog.Logger

	newApplicationID func() domain.ApplicationID
}

func NewService(apps applicationrepo.Repository, members memberrepo.Repository, media mediastore.Store, clk clockport.Clock, log zerolog.Logger) *Service {
	return &Service{
		apps:    apps,
		members: members,
		media:   media,
		clk:     clk,
		log:     log.With().Str("component", "applications").Logger(),
		newApplicationID: func() domain.ApplicationID {
			return domain.ApplicationID(uuid.NewString())
		},
	}
}

// SetNewApplicationIDForTest overrides application ID generation for
// deterministic tests. It should not be used in production code.
func (s *Service) SetNewApplicationIDForTest(fn func() domain.ApplicationID) {
	if fn != nil {
		s.newApplicationID = fn
	}
}

// Submit records a draft as a pending application. Renewals must reference an
// existing member and always carry that member's original memberSince,
// whatever the draft says.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.Application, error) {
	if in.Type != domain.ApplicationNew && in.Type != domain.ApplicationRenewal {
		return domain.Application{}, validationError("type", "must be new or renewal")
	}
	id := in.Identity
	id.FirstName = domain.NormalizeHumanName(id.FirstName)
	id.MiddleName = domain.NormalizeHumanName(id.MiddleName)
	id.LastName = domain.NormalizeHumanName(id.LastName)

	if id.FirstName == "" {
		return domain.Application{}, validationError("firstName", "must be non-empty")
	}
	if id.LastName == "" {
		return domain.Application{}, validationError("lastName", "must be non-empty")
	}
	if id.Gender == "" {
		return domain.Application{}, validationError("gender", "must be non-empty")
	}
	if id.HomeAddress == "" {
		return domain.Application{}, validationError("homeAddress", "must be non-empty")
	}
	if err := validateEmail(id.Email); err != nil {
		return domain.Application{}, validationError("email", err.Error())
	}
	if _, err := domain.ParseDate(id.DateOfBirth); err != nil {
		return domain.Application{}, validationError("dateOfBirth", err.Error())
	}

	memberSince := in.MemberSince
	var related domain.MemberID
	switch in.Type {
	case domain.ApplicationNew:
		if in.Headshot == nil || in.Headshot.URL == "" {
			return domain.Application{}, validationError("headshot", "a headshot image is required")
		}
		if _, err := domain.ParseDate(memberSince); err != nil {
			return domain.Application{}, validationError("memberSince", err.Error())
		}
	case domain.ApplicationRenewal:
		if in.RelatedMemberID == "" {
			return domain.Application{}, validationError("relatedMemberId", "must reference an existing member")
		}
		m, err := s.members.GetByID(ctx, in.RelatedMemberID)
		if err != nil {
			if errors.Is(err, memberrepo.ErrNotFound) {
				return domain.Application{}, &Error{
					Status:  404,
					Code:    "MEMBER_NOT_FOUND",
					Message: "no member record exists to renew",
				}
			}
			return domain.Application{}, err
		}
		// The join date survives renewals regardless of the submitted draft.
		memberSince = m.MemberSince
		related = m.ID
	}

	rec := applicationrepo.Application{
		ID:              s.newApplicationID(),
		Subject:         in.Subject,
		Type:            in.Type,
		Status:          domain.ApplicationPending,
		FirstName:       id.FirstName,
		MiddleName:      id.MiddleName,
		LastName:        id.LastName,
		DateOfBirth:     id.DateOfBirth,
		Gender:          id.Gender,
		Email:           id.Email,
		HomeAddress:     id.HomeAddress,
		MemberSince:     memberSince,
		WantCard:        in.WantCard,
		RelatedMemberID: related,
		SubmittedAt:     s.clk.Now(),
	}
	if in.Headshot != nil {
		rec.HeadshotURL = in.Headshot.URL
		rec.HeadshotPublicID = in.Headshot.PublicID
	}
	if in.GreenBook != nil {
		rec.GreenBookURL = in.GreenBook.URL
		rec.GreenBookPublicID = in.GreenBook.PublicID
	}

	if err := s.apps.Create(ctx, rec); err != nil {
		return domain.Application{}, err
	}
	s.log.Info().
		Str("applicationId", string(rec.ID)).
		Str("type", string(rec.Type)).
		Msg("application submitted")
	return toDomain(rec), nil
}

// Approve flips a pending application to approved and upserts the member
// record in one atomic repository call. The new validity window is anchored
// at the approval date, not at memberSince.
func (s *Service) Approve(ctx context.Context, id domain.ApplicationID) (domain.Member, error) {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, applicationrepo.ErrNotFound) {
			return domain.Member{}, notFound()
		}
		return domain.Member{}, err
	}
	if a.Status != domain.ApplicationPending {
		return domain.Member{}, conflict(a.Status)
	}

	now := s.clk.Now()
	expiresAt := domain.Expiry(now)

	var m memberrepo.Member
	switch a.Type {
	case domain.ApplicationRenewal:
		existing, err := s.members.GetByID(ctx, a.RelatedMemberID)
		if err != nil {
			if errors.Is(err, memberrepo.ErrNotFound) {
				return domain.Member{}, &Error{
					Status:  404,
					Code:    "MEMBER_NOT_FOUND",
					Message: "the member this renewal references no longer exists",
				}
			}
			return domain.Member{}, err
		}
		m = existing
		// Contact fields refresh, the join date and creation time do not.
		m.FirstName = a.FirstName
		m.MiddleName = a.MiddleName
		m.LastName = a.LastName
		m.DateOfBirth = a.DateOfBirth
		m.Gender = a.Gender
		m.Email = a.Email
		m.HomeAddress = a.HomeAddress
		if a.HeadshotURL != "" {
			m.PhotoURL = a.HeadshotURL
			m.PhotoPublicID = a.HeadshotPublicID
		}
		m.ExpiresAt = expiresAt
		m.UpdatedAt = now
	default:
		m = memberrepo.Member{
			ID:            domain.MemberID(a.Subject),
			Subject:       a.Subject,
			FirstName:     a.FirstName,
			MiddleName:    a.MiddleName,
			LastName:      a.LastName,
			DateOfBirth:   a.DateOfBirth,
			Gender:        a.Gender,
			Email:         a.Email,
			HomeAddress:   a.HomeAddress,
			PhotoURL:      a.HeadshotURL,
			PhotoPublicID: a.HeadshotPublicID,
			MemberSince:   a.MemberSince,
			ExpiresAt:     expiresAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	if err := s.apps.Approve(ctx, id, now, m); err != nil {
		switch {
		case errors.Is(err, applicationrepo.ErrNotFound):
			return domain.Member{}, notFound()
		case errors.Is(err, applicationrepo.ErrNotPending):
			// Another administrator decided this application first.
			return domain.Member{}, conflict("")
		}
		return domain.Member{}, err
	}
	s.log.Info().
		Str("applicationId", string(id)).
		Str("memberId", string(m.ID)).
		Time("expiresAt", m.ExpiresAt).
		Msg("application approved")
	return memberToDomain(m), nil
}

// Reject flips a pending application to rejected. It has no member side effect.
func (s *Service) Reject(ctx context.Context, id domain.ApplicationID) error {
	if err := s.apps.Reject(ctx, id, s.clk.Now()); err != nil {
		switch {
		case errors.Is(err, applicationrepo.ErrNotFound):
			return notFound()
		case errors.Is(err, applicationrepo.ErrNotPending):
			return conflict("")
		}
		return err
	}
	s.log.Info().Str("applicationId", string(id)).Msg("application rejected")
	return nil
}

// Delete removes an application in any status. Associated media is destroyed
// best-effort: a media-store failure is logged and the deletion still counts.
func (s *Service) Delete(ctx context.Context, id domain.ApplicationID) error {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, applicationrepo.ErrNotFound) {
			return notFound()
		}
		return err
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		if errors.Is(err, applicationrepo.ErrNotFound) {
			return notFound()
		}
		return err
	}
	s.destroyMedia(ctx, a.HeadshotPublicID)
	s.destroyMedia(ctx, a.GreenBookPublicID)
	s.log.Info().Str("applicationId", string(id)).Msg("application deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, applicationrepo.ErrNotFound) {
			return domain.Application{}, notFound()
		}
		return domain.Application{}, err
	}
	return toDomain(a), nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Application, error) {
	if f.Status != "" {
		switch f.Status {
		case domain.ApplicationPending, domain.ApplicationApproved, domain.ApplicationRejected:
		default:
			return nil, validationError("status", "must be pending, approved or rejected")
		}
	}
	as, err := s.apps.List(ctx, f.Status)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Application, 0, len(as))
	for _, a := range as {
		out = append(out, toDomain(a))
	}
	return out, nil
}

func (s *Service) destroyMedia(ctx context.Context, publicID string) {
	if publicID == "" || s.media == nil {
		return
	}
	if err := s.media.Destroy(ctx, publicID); err != nil {
		s.log.Warn().Err(err).Str("publicId", publicID).Msg("media deletion failed")
	}
}

func validationError(field, msg string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + field,
		Details: map[string]any{field: msg},
	}
}

func notFound() *Error {
	return &Error{
		Status:  404,
		Code:    "APPLICATION_NOT_FOUND",
		Message: "application not found",
	}
}

func conflict(status domain.ApplicationStatus) *Error {
	e := &Error{
		Status:  409,
		Code:    "APPLICATION_ALREADY_DECIDED",
		Message: "application already reached a terminal status",
	}
	if status != "" {
		e.Details = map[string]any{"status": string(status)}
	}
	return e
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func toDomain(a applicationrepo.Application) domain.Application {
	out := domain.Application{
		ID:      a.ID,
		Subject: a.Subject,
		Type:    a.Type,
		Status:  a.Status,
		Identity: domain.Identity{
			FirstName:   a.FirstName,
			MiddleName:  a.MiddleName,
			LastName:    a.LastName,
			DateOfBirth: a.DateOfBirth,
			Gender:      a.Gender,
			Email:       a.Email,
			HomeAddress: a.HomeAddress,
		},
		MemberSince:     a.MemberSince,
		WantCard:        a.WantCard,
		RelatedMemberID: a.RelatedMemberID,
		SubmittedAt:     a.SubmittedAt,
		ApprovedAt:      cloneTimePtr(a.ApprovedAt),
		RejectedAt:      cloneTimePtr(a.RejectedAt),
	}
	if a.HeadshotURL != "" {
		out.Headshot = &domain.ImageRef{URL: a.HeadshotURL, PublicID: a.HeadshotPublicID}
	}
	if a.GreenBookURL != "" {
		out.GreenBook = &domain.ImageRef{URL: a.GreenBookURL, PublicID: a.GreenBookPublicID}
	}
	return out
}

func memberToDomain(m memberrepo.Member) domain.Member {
	out := domain.Member{
		ID:      m.ID,
		Subject: m.Subject,
		Identity: domain.Identity{
			FirstName:   m.FirstName,
			MiddleName:  m.MiddleName,
			LastName:    m.LastName,
			DateOfBirth: m.DateOfBirth,
			Gender:      m.Gender,
			Email:       m.Email,
			HomeAddress: m.HomeAddress,
		},
		MemberSince: m.MemberSince,
		ExpiresAt:   m.ExpiresAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.PhotoURL != "" {
		out.Photo = &domain.ImageRef{URL: m.PhotoURL, PublicID: m.PhotoPublicID}
	}
	return out
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
