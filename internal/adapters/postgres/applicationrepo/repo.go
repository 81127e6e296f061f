package applicationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tanc-norcal/membership-api/internal/adapters/postgres"
	pgmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/postgres/memberrepo"
	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/applicationrepo"
	"github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

// Repo is a Postgres implementation of applicationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const applicationColumns = `
	a.id,
	a.subject,
	a.type,
	a.status,
	a.first_name,
	a.middle_name,
	a.last_name,
	a.date_of_birth,
	a.gender,
	a.email,
	a.home_address,
	a.member_since,
	a.headshot_url,
	a.headshot_public_id,
	a.green_book_url,
	a.green_book_public_id,
	a.want_card,
	a.related_member_id,
	a.submitted_at,
	a.approved_at,
	a.rejected_at
`

func (r *Repo) Create(ctx context.Context, a applicationrepo.Application) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid application id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO applications (
			id, subject, type, status,
			first_name, middle_name, last_name,
			date_of_birth, gender, email, home_address,
			member_since,
			headshot_url, headshot_public_id,
			green_book_url, green_book_public_id,
			want_card, related_member_id,
			submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		id,
		string(a.Subject),
		string(a.Type),
		string(a.Status),
		a.FirstName,
		a.MiddleName,
		a.LastName,
		a.DateOfBirth,
		a.Gender,
		a.Email,
		a.HomeAddress,
		a.MemberSince,
		a.HeadshotURL,
		a.HeadshotPublicID,
		a.GreenBookURL,
		a.GreenBookPublicID,
		a.WantCard,
		string(a.RelatedMemberID),
		a.SubmittedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return applicationrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ApplicationID) (applicationrepo.Application, error) {
	if r.pool == nil {
		return applicationrepo.Application{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return applicationrepo.Application{}, applicationrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1`, uid)
	return scanApplication(row)
}

func (r *Repo) List(ctx context.Context, status domain.ApplicationStatus) ([]applicationrepo.Application, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE a.status = $1"
		args = append(args, string(status))
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+applicationColumns+`
		FROM applications a
		`+where+`
		ORDER BY a.submitted_at DESC, a.id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]applicationrepo.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve flips the status and upserts the member in one transaction. The
// UPDATE is conditional on status still being pending, so a concurrent
// approval of the same application loses cleanly with ErrNotPending.
func (r *Repo) Approve(ctx context.Context, id domain.ApplicationID, approvedAt time.Time, m memberrepo.Member) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return applicationrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE applications
			SET status = $2, approved_at = $3
			WHERE id = $1 AND status = $4
		`, uid, string(domain.ApplicationApproved), approvedAt.UTC(), string(domain.ApplicationPending))
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return statusErr(ctx, tx, uid)
		}

		_, err = tx.Exec(ctx, pgmemberrepo.UpsertSQL, pgmemberrepo.UpsertArgs(m)...)
		return err
	})
}

func (r *Repo) Reject(ctx context.Context, id domain.ApplicationID, rejectedAt time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return applicationrepo.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE applications
			SET status = $2, rejected_at = $3
			WHERE id = $1 AND status = $4
		`, uid, string(domain.ApplicationRejected), rejectedAt.UTC(), string(domain.ApplicationPending))
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return statusErr(ctx, tx, uid)
		}
		return nil
	})
}

func (r *Repo) Delete(ctx context.Context, id domain.ApplicationID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return applicationrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return applicationrepo.ErrNotFound
	}
	return nil
}

// statusErr distinguishes "gone" from "already decided" after a conditional
// update matched no rows.
func statusErr(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return applicationrepo.ErrNotFound
	}
	if err != nil {
		return err
	}
	return applicationrepo.ErrNotPending
}

func scanApplication(row interface {
	Scan(dest ...any) error
}) (applicationrepo.Application, error) {
	var (
		id                                      uuid.UUID
		subject, typ, status                    string
		firstName, middleName, lastName         string
		dateOfBirth, gender, email, homeAddr    string
		memberSince                             string
		headshotURL, headshotPublicID           string
		greenBookURL, greenBookPublicID         string
		wantCard                                bool
		relatedMemberID                         string
		submittedAt                             time.Time
		approvedAt, rejectedAt                  *time.Time
	)
	if err := row.Scan(
		&id,
		&subject,
		&typ,
		&status,
		&firstName,
		&middleName,
		&lastName,
		&dateOfBirth,
		&gender,
		&email,
		&homeAddr,
		&memberSince,
		&headshotURL,
		&headshotPublicID,
		&greenBookURL,
		&greenBookPublicID,
		&wantCard,
		&relatedMemberID,
		&submittedAt,
		&approvedAt,
		&rejectedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return applicationrepo.Application{}, applicationrepo.ErrNotFound
		}
		return applicationrepo.Application{}, err
	}
	out := applicationrepo.Application{
		ID:                domain.ApplicationID(id.String()),
		Subject:           domain.SubjectID(subject),
		Type:              domain.ApplicationType(typ),
		Status:            domain.ApplicationStatus(status),
		FirstName:         firstName,
		MiddleName:        middleName,
		LastName:          lastName,
		DateOfBirth:       dateOfBirth,
		Gender:            gender,
		Email:             email,
		HomeAddress:       homeAddr,
		MemberSince:       memberSince,
		HeadshotURL:       headshotURL,
		HeadshotPublicID:  headshotPublicID,
		GreenBookURL:      greenBookURL,
		GreenBookPublicID: greenBookPublicID,
		WantCard:          wantCard,
		RelatedMemberID:   domain.MemberID(relatedMemberID),
		SubmittedAt:       submittedAt.UTC(),
	}
	if approvedAt != nil {
		v := approvedAt.UTC()
		out.ApprovedAt = &v
	}
	if rejectedAt != nil {
		v := rejectedAt.UTC()
		out.RejectedAt = &v
	}
	return out, nil
}
