package adminrepo

import (
	"context"
	"sync"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
)

// Repo is an in-memory implementation of adminrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu        sync.RWMutex
	bySubject map[domain.SubjectID]adminrepo.Admin
}

func NewRepo() *Repo {
	return &Repo{bySubject: make(map[domain.SubjectID]adminrepo.Admin)}
}

func (r *Repo) Put(ctx context.Context, a adminrepo.Admin) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySubject[a.Subject] = a
	return nil
}

func (r *Repo) Get(ctx context.Context, subject domain.SubjectID) (adminrepo.Admin, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.bySubject[subject]
	if !ok {
		return adminrepo.Admin{}, adminrepo.ErrNotFound
	}
	return a, nil
}

func (r *Repo) IsAdmin(ctx context.Context, subject domain.SubjectID) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySubject[subject]
	return ok, nil
}
