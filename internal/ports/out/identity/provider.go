package identity

import (
	"context"
	"errors"

	"github.com/tanc-norcal/membership-api/internal/domain"
)

var (
	// ErrEmailInUse indicates an account already exists for the email address.
	ErrEmailInUse = errors.New("email already in use")

	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound indicates no account exists for the subject.
	ErrNotFound = errors.New("account not found")
)

// Provider is the narrow slice of the identity service this system consumes:
// account creation at submission time, credential checks at login, and
// email/password changes from the profile flows.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (domain.SubjectID, error)

	Authenticate(ctx context.Context, email, password string) (domain.SubjectID, error)

	UpdateEmail(ctx context.Context, subject domain.SubjectID, email string) error
	UpdatePassword(ctx context.Context, subject domain.SubjectID, password string) error
}
