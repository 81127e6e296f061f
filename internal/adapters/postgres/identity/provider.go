package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	postgres "github.com/tanc-norcal/membership-api/internal/adapters/postgres"
	"github.com/tanc-norcal/membership-api/internal/domain"
	identityport "github.com/tanc-norcal/membership-api/internal/ports/out/identity"
)

// Provider is a Postgres-backed implementation of identity.Provider with
// bcrypt-hashed credentials.
type Provider struct {
	pool *pgxpool.Pool
}

func NewProvider(pool *pgxpool.Pool) *Provider {
	return &Provider{pool: pool}
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (domain.SubjectID, error) {
	if p.pool == nil {
		return "", errors.New("nil postgres pool")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	sub := domain.SubjectID(uuid.NewString())
	now := time.Now().UTC()
	_, err = p.pool.Exec(ctx, `
		INSERT INTO accounts (subject, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, string(sub), emailKey(email), string(hash), now, now)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return "", identityport.ErrEmailInUse
		}
		return "", err
	}
	return sub, nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (domain.SubjectID, error) {
	if p.pool == nil {
		return "", errors.New("nil postgres pool")
	}
	var (
		sub  string
		hash string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT subject, password_hash FROM accounts WHERE email = $1
	`, emailKey(email)).Scan(&sub, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Equalize timing between unknown-email and bad-password paths.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0a6PZ9w1rlqS6m12nA6C0h7eW1K"), []byte(password))
			return "", identityport.ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", identityport.ErrInvalidCredentials
	}
	return domain.SubjectID(sub), nil
}

func (p *Provider) UpdateEmail(ctx context.Context, subject domain.SubjectID, email string) error {
	if p.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := p.pool.Exec(ctx, `
		UPDATE accounts SET email = $2, updated_at = now() WHERE subject = $1
	`, string(subject), emailKey(email))
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return identityport.ErrEmailInUse
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return identityport.ErrNotFound
	}
	return nil
}

func (p *Provider) UpdatePassword(ctx context.Context, subject domain.SubjectID, password string) error {
	if p.pool == nil {
		return errors.New("nil postgres pool")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ct, err := p.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = now() WHERE subject = $1
	`, string(subject), string(hash))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return identityport.ErrNotFound
	}
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
