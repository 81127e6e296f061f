package members

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
	clockport "github.com/tanc-norcal/membership-api/internal/ports/out/clock"
	"github.com/tanc-norcal/membership-api/internal/ports/out/identity"
	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Service owns member-record reads and edits: the authenticated profile, the
// administrative directory, and member removal. All writes that originate
// from an application decision live in the applications service instead.
type Service struct {
	members memberrepo.Repository
	admins  adminrepo.Repository
	ids     identity.Provider
	media   mediastore.Store
	clk     clockport.Clock
	log     zerolog.Logger
}

func NewService(members memberrepo.Repository, admins adminrepo.Repository, ids identity.Provider, media mediastore.Store, clk clockport.Clock, log zerolog.Logger) *Service {
	return &Service{
		members: members,
		admins:  admins,
		ids:     ids,
		media:   media,
		clk:     clk,
		log:     log.With().Str("component", "members").Logger(),
	}
}

// GetProfile resolves the authenticated subject to a member or an admin.
// Members win when a subject is somehow both.
func (s *Service) GetProfile(ctx context.Context, subject domain.SubjectID) (domain.Profile, error) {
	m, err := s.members.GetBySubject(ctx, subject)
	if err == nil {
		dm := toDomain(m)
		return domain.Profile{Kind: domain.ProfileMember, Member: &dm}, nil
	}
	if !errors.Is(err, memberrepo.ErrNotFound) {
		return domain.Profile{}, err
	}

	a, err := s.admins.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, adminrepo.ErrNotFound) {
			return domain.Profile{}, accountNotFound()
		}
		return domain.Profile{}, err
	}
	da := domain.Admin{
		Subject:   a.Subject,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	return domain.Profile{Kind: domain.ProfileAdmin, Admin: &da}, nil
}

// UpdateProfile applies a patch to the caller's own record. Email and password
// changes are forwarded to the identity provider before the record is saved,
// so a credential failure leaves the stored record untouched.
func (s *Service) UpdateProfile(ctx context.Context, subject domain.SubjectID, in UpdateProfileInput) (domain.Profile, error) {
	p, err := s.GetProfile(ctx, subject)
	if err != nil {
		return domain.Profile{}, err
	}

	email, err := patchedEmail(in.Email)
	if err != nil {
		return domain.Profile{}, err
	}
	if in.Password.IsSpecified() {
		if in.Password.IsNull() || strings.TrimSpace(in.Password.Value()) == "" {
			return domain.Profile{}, validationError("password", "cannot be empty")
		}
	}

	switch p.Kind {
	case domain.ProfileMember:
		return s.updateMemberProfile(ctx, subject, *p.Member, in, email)
	default:
		return s.updateAdminProfile(ctx, subject, *p.Admin, in, email)
	}
}

func (s *Service) updateMemberProfile(ctx context.Context, subject domain.SubjectID, cur domain.Member, in UpdateProfileInput, email string) (domain.Profile, error) {
	m, err := s.members.GetByID(ctx, cur.ID)
	if err != nil {
		return domain.Profile{}, err
	}

	if in.FirstName.IsSpecified() {
		v, err := requiredName(in.FirstName, "firstName")
		if err != nil {
			return domain.Profile{}, err
		}
		m.FirstName = v
	}
	if in.MiddleName.IsSpecified() {
		if in.MiddleName.IsNull() {
			m.MiddleName = ""
		} else {
			m.MiddleName = domain.NormalizeHumanName(in.MiddleName.Value())
		}
	}
	if in.LastName.IsSpecified() {
		v, err := requiredName(in.LastName, "lastName")
		if err != nil {
			return domain.Profile{}, err
		}
		m.LastName = v
	}
	if in.HomeAddress.IsSpecified() && !in.HomeAddress.IsNull() {
		m.HomeAddress = strings.TrimSpace(in.HomeAddress.Value())
	}
	if in.Photo.IsSpecified() && !in.Photo.IsNull() {
		ref := in.Photo.Value()
		if ref.URL == "" {
			return domain.Profile{}, validationError("photo", "url must be non-empty")
		}
		old := m.PhotoPublicID
		m.PhotoURL = ref.URL
		m.PhotoPublicID = ref.PublicID
		if old != "" && old != ref.PublicID {
			s.destroyMedia(ctx, old)
		}
	}

	if email != "" && !strings.EqualFold(email, m.Email) {
		if err := s.ids.UpdateEmail(ctx, subject, email); err != nil {
			return domain.Profile{}, mapIdentityError(err)
		}
		m.Email = email
	}
	if in.Password.IsSpecified() {
		if err := s.ids.UpdatePassword(ctx, subject, in.Password.Value()); err != nil {
			return domain.Profile{}, mapIdentityError(err)
		}
	}

	m.UpdatedAt = s.clk.Now()
	if err := s.members.Upsert(ctx, m); err != nil {
		return domain.Profile{}, err
	}
	dm := toDomain(m)
	return domain.Profile{Kind: domain.ProfileMember, Member: &dm}, nil
}

func (s *Service) updateAdminProfile(ctx context.Context, subject domain.SubjectID, cur domain.Admin, in UpdateProfileInput, email string) (domain.Profile, error) {
	a := adminrepo.Admin{
		Subject:   cur.Subject,
		FirstName: cur.FirstName,
		LastName:  cur.LastName,
		Email:     cur.Email,
		CreatedAt: cur.CreatedAt,
	}
	if in.FirstName.IsSpecified() {
		v, err := requiredName(in.FirstName, "firstName")
		if err != nil {
			return domain.Profile{}, err
		}
		a.FirstName = v
	}
	if in.LastName.IsSpecified() {
		v, err := requiredName(in.LastName, "lastName")
		if err != nil {
			return domain.Profile{}, err
		}
		a.LastName = v
	}
	if email != "" && !strings.EqualFold(email, a.Email) {
		if err := s.ids.UpdateEmail(ctx, subject, email); err != nil {
			return domain.Profile{}, mapIdentityError(err)
		}
		a.Email = email
	}
	if in.Password.IsSpecified() {
		if err := s.ids.UpdatePassword(ctx, subject, in.Password.Value()); err != nil {
			return domain.Profile{}, mapIdentityError(err)
		}
	}

	a.UpdatedAt = s.clk.Now()
	if err := s.admins.Put(ctx, a); err != nil {
		return domain.Profile{}, err
	}
	da := domain.Admin{
		Subject:   a.Subject,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	return domain.Profile{Kind: domain.ProfileAdmin, Admin: &da}, nil
}

// GetCard renders the caller's digital membership ID. Admins have no card.
func (s *Service) GetCard(ctx context.Context, subject domain.SubjectID) (Card, error) {
	m, err := s.members.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return Card{}, &Error{
				Status:  404,
				Code:    "MEMBER_NOT_FOUND",
				Message: "no membership card exists for this account",
			}
		}
		return Card{}, err
	}
	dm := toDomain(m)
	return Card{
		MemberID:    m.ID,
		Name:        dm.Identity.FullName(),
		PhotoURL:    m.PhotoURL,
		MemberSince: m.MemberSince,
		ExpiresAt:   m.ExpiresAt.UTC().Format(domain.DateLayout),
		Status:      dm.StatusAt(s.clk.Now()),
	}, nil
}

// Directory lists members with derived status, filtered and sorted for
// administrative review. Filtering is linear over the full listing; the
// directory is small by construction.
func (s *Service) Directory(ctx context.Context, q DirectoryQuery) ([]DirectoryEntry, error) {
	if q.Status != "" && q.Status != domain.MemberActive && q.Status != domain.MemberExpired {
		return nil, validationError("status", "must be active or expired")
	}
	switch q.Sort {
	case "", SortByName, SortByExpiry:
	default:
		return nil, validationError("sort", "must be name or expiry")
	}

	ms, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clk.Now()
	needle := strings.ToLower(strings.TrimSpace(q.Query))

	out := make([]DirectoryEntry, 0, len(ms))
	for _, m := range ms {
		dm := toDomain(m)
		st := dm.StatusAt(now)
		if q.Status != "" && st != q.Status {
			continue
		}
		if needle != "" {
			name := strings.ToLower(dm.Identity.FullName())
			email := strings.ToLower(dm.Identity.Email)
			if !strings.Contains(name, needle) && !strings.Contains(email, needle) {
				continue
			}
		}
		out = append(out, DirectoryEntry{Member: dm, Status: st})
	}

	if q.Sort == SortByExpiry {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Member.ExpiresAt.Before(out[j].Member.ExpiresAt)
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			ni := strings.ToLower(out[i].Member.Identity.FullName())
			nj := strings.ToLower(out[j].Member.Identity.FullName())
			if ni == nj {
				return out[i].Member.ID < out[j].Member.ID
			}
			return ni < nj
		})
	}
	return out, nil
}

// GetMember returns a single member with derived status for administrative view.
func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (DirectoryEntry, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return DirectoryEntry{}, memberNotFound()
		}
		return DirectoryEntry{}, err
	}
	dm := toDomain(m)
	return DirectoryEntry{Member: dm, Status: dm.StatusAt(s.clk.Now())}, nil
}

// RemoveMember deletes the member record. The photo is destroyed best-effort;
// a media failure is logged and the removal still counts. Applications are
// never resurrected or altered by a removal.
func (s *Service) RemoveMember(ctx context.Context, id domain.MemberID) error {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberNotFound()
		}
		return err
	}
	if err := s.members.Delete(ctx, id); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberNotFound()
		}
		return err
	}
	s.destroyMedia(ctx, m.PhotoPublicID)
	s.log.Info().Str("memberId", string(id)).Msg("member removed")
	return nil
}

func (s *Service) destroyMedia(ctx context.Context, publicID string) {
	if publicID == "" || s.media == nil {
		return
	}
	if err := s.media.Destroy(ctx, publicID); err != nil {
		s.log.Warn().Err(err).Str("publicId", publicID).Msg("media deletion failed")
	}
}

func patchedEmail(o Optional[string]) (string, error) {
	if !o.IsSpecified() {
		return "", nil
	}
	if o.IsNull() {
		return "", validationError("email", "cannot be null")
	}
	email := strings.TrimSpace(o.Value())
	if err := validateEmail(email); err != nil {
		return "", validationError("email", err.Error())
	}
	return email, nil
}

func requiredName(o Optional[string], field string) (string, error) {
	if o.IsNull() {
		return "", validationError(field, "cannot be null")
	}
	v := domain.NormalizeHumanName(o.Value())
	if v == "" {
		return "", validationError(field, "must be non-empty")
	}
	return v, nil
}

func validationError(field, msg string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + field,
		Details: map[string]any{field: msg},
	}
}

func accountNotFound() *Error {
	return &Error{
		Status:  404,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "Account not found. Please contact support.",
	}
}

func memberNotFound() *Error {
	return &Error{
		Status:  404,
		Code:    "MEMBER_NOT_FOUND",
		Message: "member not found",
	}
}

func mapIdentityError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailInUse):
		return &Error{Status: 409, Code: "EMAIL_ALREADY_IN_USE", Message: "email address is already in use"}
	case errors.Is(err, identity.ErrNotFound):
		return accountNotFound()
	}
	return err
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

func toDomain(m memberrepo.Member) domain.Member {
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
