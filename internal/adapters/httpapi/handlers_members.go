package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/domain"
)

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	q := members.DirectoryQuery{
		Query: r.URL.Query().Get("q"),
	}

	switch status := r.URL.Query().Get("status"); status {
	case "":
	case string(domain.MemberActive), string(domain.MemberExpired):
		q.Status = domain.MemberStatus(status)
	default:
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status filter", map[string]any{"status": status})
		return
	}

	switch sort := r.URL.Query().Get("sort"); sort {
	case "", string(members.SortByName):
		q.Sort = members.SortByName
	case string(members.SortByExpiry):
		q.Sort = members.SortByExpiry
	default:
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown sort order", map[string]any{"sort": sort})
		return
	}

	entries, err := s.Members.Directory(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]memberDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toMemberDTO(e.Member, e.Status))
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id := domain.MemberID(chi.URLParam(r, "memberID"))

	entry, err := s.Members.GetMember(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"member": toMemberDTO(entry.Member, entry.Status)})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id := domain.MemberID(chi.URLParam(r, "memberID"))

	if err := s.Members.RemoveMember(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
