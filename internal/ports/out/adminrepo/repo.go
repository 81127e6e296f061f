package adminrepo

import (
	"context"
	"errors"
	"time"

	"github.com/tanc-norcal/membership-api/internal/domain"
)

// ErrNotFound indicates no admin record exists for the subject.
var ErrNotFound = errors.New("admin not found")

// Admin is the persistence shape for an administrator record.
type Admin struct {
	Subject domain.SubjectID

	FirstName string
	LastName  string
	Email     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to the admins store. Authorization checks go
// through IsAdmin on every admin-gated request; callers must not cache the
// result as a security boundary.
type Repository interface {
	Put(ctx context.Context, a Admin) error

	Get(ctx context.Context, subject domain.SubjectID) (Admin, error)

	IsAdmin(ctx context.Context, subject domain.SubjectID) (bool, error)
}
