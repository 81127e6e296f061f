package memberrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Repo is a Postgres implementation of memberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const memberColumns = `
	m.id,
	m.subject,
	m.first_name,
	m.middle_name,
	m.last_name,
	m.date_of_birth,
	m.gender,
	m.email,
	m.home_address,
	m.photo_url,
	m.photo_public_id,
	m.member_since,
	m.expires_at,
	m.created_at,
	m.updated_at
`

// UpsertSQL is the shared member upsert. The application repo reuses it inside
// the approval transaction so both adapters write identical rows.
const UpsertSQL = `
	INSERT INTO members (
		id, subject,
		first_name, middle_name, last_name,
		date_of_birth, gender, email, home_address,
		photo_url, photo_public_id,
		member_since, expires_at,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (id) DO UPDATE SET
		first_name = EXCLUDED.first_name,
		middle_name = EXCLUDED.middle_name,
		last_name = EXCLUDED.last_name,
		date_of_birth = EXCLUDED.date_of_birth,
		gender = EXCLUDED.gender,
		email = EXCLUDED.email,
		home_address = EXCLUDED.home_address,
		photo_url = EXCLUDED.photo_url,
		photo_public_id = EXCLUDED.photo_public_id,
		member_since = EXCLUDED.member_since,
		expires_at = EXCLUDED.expires_at,
		updated_at = EXCLUDED.updated_at
`

// UpsertArgs orders a member's fields to match UpsertSQL's placeholders.
func UpsertArgs(m memberrepo.Member) []any {
	return []any{
		string(m.ID),
		string(m.Subject),
		m.FirstName,
		m.MiddleName,
		m.LastName,
		m.DateOfBirth,
		m.Gender,
		m.Email,
		m.HomeAddress,
		m.PhotoURL,
		m.PhotoPublicID,
		m.MemberSince,
		m.ExpiresAt.UTC(),
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	}
}

func (r *Repo) Upsert(ctx context.Context, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, UpsertSQL, UpsertArgs(m)...)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.id = $1`, string(id))
	return scanMember(row)
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (memberrepo.Member, error) {
	if r.pool == nil {
		return memberrepo.Member{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members m WHERE m.subject = $1`, string(subject))
	return scanMember(row)
}

func (r *Repo) List(ctx context.Context) ([]memberrepo.Member, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members m
		ORDER BY lower(m.first_name || ' ' || m.last_name) ASC, m.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]memberrepo.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func scanMember(row interface {
	Scan(dest ...any) error
}) (memberrepo.Member, error) {
	var (
		id, subject                                string
		firstName, middleName, lastName            string
		dateOfBirth, gender, email, homeAddress    string
		photoURL, photoPublicID, memberSince       string
		expiresAt, createdAt, updatedAt            time.Time
	)
	if err := row.Scan(
		&id,
		&subject,
		&firstName,
		&middleName,
		&lastName,
		&dateOfBirth,
		&gender,
		&email,
		&homeAddress,
		&photoURL,
		&photoPublicID,
		&memberSince,
		&expiresAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return memberrepo.Member{}, memberrepo.ErrNotFound
		}
		return memberrepo.Member{}, err
	}
	return memberrepo.Member{
		ID:            domain.MemberID(id),
		Subject:       domain.SubjectID(subject),
		FirstName:     firstName,
		MiddleName:    middleName,
		LastName:      lastName,
		DateOfBirth:   dateOfBirth,
		Gender:        gender,
		Email:         email,
		HomeAddress:   homeAddress,
		PhotoURL:      photoURL,
		PhotoPublicID: photoPublicID,
		MemberSince:   memberSince,
		ExpiresAt:     expiresAt.UTC(),
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     updatedAt.UTC(),
	}, nil
}
