package adminrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
)

// Repo is a Postgres implementation of adminrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Put(ctx context.Context, a adminrepo.Admin) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admins (subject, first_name, last_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subject) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at
	`,
		string(a.Subject),
		a.FirstName,
		a.LastName,
		a.Email,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) Get(ctx context.Context, subject domain.SubjectID) (adminrepo.Admin, error) {
	if r.pool == nil {
		return adminrepo.Admin{}, errors.New("nil postgres pool")
	}
	var (
		sub, firstName, lastName, email string
		createdAt, updatedAt            time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT subject, first_name, last_name, email, created_at, updated_at
		FROM admins
		WHERE subject = $1
	`, string(subject)).Scan(&sub, &firstName, &lastName, &email, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adminrepo.Admin{}, adminrepo.ErrNotFound
		}
		return adminrepo.Admin{}, err
	}
	return adminrepo.Admin{
		Subject:   domain.SubjectID(sub),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func (r *Repo) IsAdmin(ctx context.Context, subject domain.SubjectID) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM admins WHERE subject = $1)
	`, string(subject)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
