package applicationrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	memmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/memberrepo"
	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/applicationrepo"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of applicationrepo.Repository.
// It is safe for concurrent use.
//
// Approve spans this store and the member store; the repo therefore holds a
// reference to the sibling member repo and performs both writes while holding
// its own write lock plus the member repo's lock, mirroring the transaction
// the Postgres adapter uses.
type Repo struct {
	mu sync.RWMutex

	byID    map[domain.ApplicationID]applicationrepo.Application
	members *memmemberrepo.Repo
}

func NewRepo(members *memmemberrepo.Repo) *Repo {
	return &Repo{
		byID:    make(map[domain.ApplicationID]applicationrepo.Application),
		members: members,
	}
}

func (r *Repo) Create(ctx context.Context, a applicationrepo.Application) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; ok {
		return applicationrepo.ErrAlreadyExists
	}
	r.byID[a.ID] = cloneApplication(a)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ApplicationID) (applicationrepo.Application, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return applicationrepo.Application{}, applicationrepo.ErrNotFound
	}
	return cloneApplication(a), nil
}

func (r *Repo) List(ctx context.Context, status domain.ApplicationStatus) ([]applicationrepo.Application, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]applicationrepo.Application, 0, len(r.byID))
	for _, a := range r.byID {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, cloneApplication(a))
	}
	// Newest first; ID breaks ties deterministically.
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *Repo) Approve(ctx context.Context, id domain.ApplicationID, approvedAt time.Time, m memberrepo.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return applicationrepo.ErrNotFound
	}
	if a.Status != domain.ApplicationPending {
		return applicationrepo.ErrNotPending
	}

	r.members.Lock()
	r.members.UpsertLocked(m)
	r.members.Unlock()

	a.Status = domain.ApplicationApproved
	at := approvedAt
	a.ApprovedAt = &at
	r.byID[id] = a
	return nil
}

func (r *Repo) Reject(ctx context.Context, id domain.ApplicationID, rejectedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return applicationrepo.ErrNotFound
	}
	if a.Status != domain.ApplicationPending {
		return applicationrepo.ErrNotPending
	}
	a.Status = domain.ApplicationRejected
	at := rejectedAt
	a.RejectedAt = &at
	r.byID[id] = a
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ApplicationID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return applicationrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneApplication(a applicationrepo.Application) applicationrepo.Application {
	out := a
	out.ApprovedAt = cloneTimePtr(a.ApprovedAt)
	out.RejectedAt = cloneTimePtr(a.RejectedAt)
	return out
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
