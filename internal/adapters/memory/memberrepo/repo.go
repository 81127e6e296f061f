package memberrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID    map[domain.MemberID]memberrepo.Member
	idBySub map[domain.SubjectID]domain.MemberID
}

func NewRepo() *Repo {
	return &Repo{
		byID:    make(map[domain.MemberID]memberrepo.Member),
		idBySub: make(map[domain.SubjectID]domain.MemberID),
	}
}

func (r *Repo) Upsert(ctx context.Context, m memberrepo.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpsertLocked(m)
	return nil
}

// UpsertLocked writes a member while the caller holds Lock. The application
// repo uses it to keep approval a single critical section across both stores.
func (r *Repo) UpsertLocked(m memberrepo.Member) {
	if old, ok := r.byID[m.ID]; ok && old.Subject != m.Subject {
		delete(r.idBySub, old.Subject)
	}
	r.byID[m.ID] = m
	r.idBySub[m.Subject] = m.ID
}

// Lock exposes the repo's write lock to the sibling application repo so that
// an approval mutates both stores under one critical section.
func (r *Repo) Lock()   { r.mu.Lock() }
func (r *Repo) Unlock() { r.mu.Unlock() }

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return m, nil
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySub[subject]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	return m, nil
}

func (r *Repo) List(ctx context.Context) ([]memberrepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]memberrepo.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	sortMembersByName(out)
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return memberrepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.idBySub, m.Subject)
	return nil
}

func sortMembersByName(ms []memberrepo.Member) {
	sort.Slice(ms, func(i, j int) bool {
		ni := strings.ToLower(ms[i].FirstName + " " + ms[i].LastName)
		nj := strings.ToLower(ms[j].FirstName + " " + ms[j].LastName)
		if ni == nj {
			return string(ms[i].ID) < string(ms[j].ID)
		}
		return ni < nj
	})
}
