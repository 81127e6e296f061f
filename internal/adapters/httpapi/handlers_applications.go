package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanc-norcal/membership-api/internal/app/applications"
	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/identity"
)

type accountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type submitApplicationRequest struct {
	Account accountRequest `json:"account"`

	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	HomeAddress string `json:"homeAddress"`

	MemberSince string `json:"memberSince"`

	Headshot  *imageRefDTO `json:"headshot"`
	GreenBook *imageRefDTO `json:"greenBook"`

	WantCard bool `json:"wantCard"`
}

type submitApplicationResponse struct {
	Application  applicationDTO          `json:"application"`
	Confirmation applicationConfirmation `json:"confirmation"`
}

type applicationConfirmation struct {
	FirstName string `json:"firstName"`
	Type      string `json:"type"`
}

func fromImageRefDTO(ref *imageRefDTO) *domain.ImageRef {
	if ref == nil {
		return nil
	}
	return &domain.ImageRef{URL: ref.URL, PublicID: ref.PublicID}
}

// handleSubmitApplication creates the applicant's account and files a new
// membership application in one request. A validation failure after the
// account write leaves the account in place; resubmission reuses it only
// through login, so applicants get a clear email-in-use error instead.
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Account.Email == "" || req.Account.Password == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "account email and password are required", nil)
		return
	}

	subject, err := s.Identity.CreateAccount(r.Context(), req.Account.Email, req.Account.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailInUse) {
			writeError(w, r, http.StatusConflict, "EMAIL_ALREADY_IN_USE", "an account already exists for this email", nil)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	app, err := s.Applications.Submit(r.Context(), applications.SubmitInput{
		Type:    domain.ApplicationNew,
		Subject: subject,
		Identity: domain.Identity{
			FirstName:   req.FirstName,
			MiddleName:  req.MiddleName,
			LastName:    req.LastName,
			DateOfBirth: req.DateOfBirth,
			Gender:      req.Gender,
			Email:       req.Account.Email,
			HomeAddress: req.HomeAddress,
		},
		MemberSince: req.MemberSince,
		Headshot:    fromImageRefDTO(req.Headshot),
		GreenBook:   fromImageRefDTO(req.GreenBook),
		WantCard:    req.WantCard,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, submitApplicationResponse{
		Application: toApplicationDTO(app),
		Confirmation: applicationConfirmation{
			FirstName: app.Identity.FirstName,
			Type:      string(app.Type),
		},
	})
}

type submitRenewalRequest struct {
	FirstName   string  `json:"firstName"`
	MiddleName  *string `json:"middleName"`
	LastName    string  `json:"lastName"`
	DateOfBirth string  `json:"dateOfBirth"`
	Gender      string  `json:"gender"`
	Email       string  `json:"email"`
	HomeAddress string  `json:"homeAddress"`

	Headshot  *imageRefDTO `json:"headshot"`
	GreenBook *imageRefDTO `json:"greenBook"`

	WantCard bool `json:"wantCard"`
}

// handleSubmitRenewal files a renewal for the caller's existing membership.
// Omitted identity fields fall back to the current member record so the form
// can be pre-filled client side and submitted sparsely.
func (s *Server) handleSubmitRenewal(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
		return
	}

	var req submitRenewalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := s.Members.GetProfile(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if profile.Kind != domain.ProfileMember || profile.Member == nil {
		writeError(w, r, http.StatusNotFound, "MEMBER_NOT_FOUND", "no membership found for this account", nil)
		return
	}
	cur := *profile.Member

	id := cur.Identity
	if req.FirstName != "" {
		id.FirstName = req.FirstName
	}
	if req.MiddleName != nil {
		id.MiddleName = *req.MiddleName
	}
	if req.LastName != "" {
		id.LastName = req.LastName
	}
	if req.DateOfBirth != "" {
		id.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		id.Gender = req.Gender
	}
	if req.Email != "" {
		id.Email = req.Email
	}
	if req.HomeAddress != "" {
		id.HomeAddress = req.HomeAddress
	}

	headshot := fromImageRefDTO(req.Headshot)
	if headshot == nil && cur.Photo != nil {
		ph := *cur.Photo
		headshot = &ph
	}

	app, err := s.Applications.Submit(r.Context(), applications.SubmitInput{
		Type:            domain.ApplicationRenewal,
		Subject:         subject,
		Identity:        id,
		Headshot:        headshot,
		GreenBook:       fromImageRefDTO(req.GreenBook),
		WantCard:        req.WantCard,
		RelatedMemberID: cur.ID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, submitApplicationResponse{
		Application: toApplicationDTO(app),
		Confirmation: applicationConfirmation{
			FirstName: app.Identity.FirstName,
			Type:      string(app.Type),
		},
	})
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	var filter applications.ListFilter
	switch status := r.URL.Query().Get("status"); status {
	case "":
	case string(domain.ApplicationPending), string(domain.ApplicationApproved), string(domain.ApplicationRejected):
		filter.Status = domain.ApplicationStatus(status)
	default:
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status filter", map[string]any{"status": status})
		return
	}

	apps, err := s.Applications.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]applicationDTO, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationDTO(a))
	}
	respondJSON(w, http.StatusOK, map[string]any{"applications": out})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "applicationID"))

	app, err := s.Applications.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"application": toApplicationDTO(app)})
}

func (s *Server) handleApproveApplication(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "applicationID"))

	member, err := s.Applications.Approve(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"member": toMemberDTO(member, domain.MemberActive),
	})
}

func (s *Server) handleRejectApplication(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "applicationID"))

	if err := s.Applications.Reject(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := domain.ApplicationID(chi.URLParam(r, "applicationID"))

	if err := s.Applications.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
