package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tanc-norcal/membership-api/internal/domain"
	adminrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
	applicationrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/applicationrepo"
	identityport "github.com/tanc-norcal/membership-api/internal/ports/out/identity"
	memberrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

type CleanupFunc = func()

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type ApplicationRepoFactory func(t *testing.T) (applicationrepoport.Repository, memberrepoport.Repository, CleanupFunc)
type AdminRepoFactory func(t *testing.T) (adminrepoport.Repository, CleanupFunc)
type IdentityFactory func(t *testing.T) (identityport.Provider, CleanupFunc)

func testMember(id, first, last string) memberrepoport.Member {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return memberrepoport.Member{
		ID:          domain.MemberID(id),
		Subject:     domain.SubjectID(id),
		FirstName:   first,
		LastName:    last,
		DateOfBirth: "1980-06-15",
		Gender:      "female",
		Email:       first + "@example.org",
		HomeAddress: "12 Main St, Richmond CA",
		MemberSince: "2021-03-01",
		ExpiresAt:   now.AddDate(5, 0, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testApplication(subject string) applicationrepoport.Application {
	return applicationrepoport.Application{
		ID:          domain.ApplicationID(uuid.NewString()),
		Subject:     domain.SubjectID(subject),
		Type:        domain.ApplicationNew,
		Status:      domain.ApplicationPending,
		FirstName:   "Dolma",
		LastName:    "Sherpa",
		DateOfBirth: "1990-01-20",
		Gender:      "female",
		Email:       "dolma@example.org",
		HomeAddress: "88 Hill Rd, El Cerrito CA",
		MemberSince: "2026-03-01",
		HeadshotURL: "https://img.example/headshot.jpg",
		WantCard:    true,
		SubmittedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	m := testMember("sub-1", "Tenzin", "Lhamo")
	if err := repo.Upsert(ctx, m); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FirstName != "Tenzin" || got.Email != "Tenzin@example.org" {
		t.Fatalf("unexpected member: %+v", got)
	}

	got, err = repo.GetBySubject(ctx, m.Subject)
	if err != nil || got.ID != m.ID {
		t.Fatalf("GetBySubject: id=%v err=%v", got.ID, err)
	}

	// Upsert overwrites in place.
	m.HomeAddress = "99 New Ave, Albany CA"
	if err := repo.Upsert(ctx, m); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}
	got, _ = repo.GetByID(ctx, m.ID)
	if got.HomeAddress != "99 New Ave, Albany CA" {
		t.Fatalf("overwrite not applied: %+v", got)
	}

	// List orders by name, case-insensitive.
	if err := repo.Upsert(ctx, testMember("sub-2", "pema", "Bhutia")); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].FirstName != "pema" || list[1].FirstName != "Tenzin" {
		t.Fatalf("unexpected order: %+v", list)
	}

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, m.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Delete: member still present, err=%v", err)
	}
	if err := repo.Delete(ctx, m.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Delete missing: want ErrNotFound, got %v", err)
	}
}

func RunApplicationRepo(t *testing.T, newRepo ApplicationRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, members, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.GetByID(ctx, domain.ApplicationID(uuid.NewString())); !errors.Is(err, applicationrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	a := testApplication("sub-app-1")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, a); !errors.Is(err, applicationrepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate: want ErrAlreadyExists, got %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil || got.Status != domain.ApplicationPending {
		t.Fatalf("GetByID: %+v err=%v", got, err)
	}

	// List newest first, optionally filtered by status.
	b := testApplication("sub-app-2")
	b.SubmittedAt = a.SubmittedAt.Add(time.Hour)
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	list, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
	list, err = repo.List(ctx, domain.ApplicationPending)
	if err != nil || len(list) != 2 {
		t.Fatalf("List pending: n=%d err=%v", len(list), err)
	}

	// Approve flips status and writes the member record together.
	approvedAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	m := testMember(string(a.Subject), "Dolma", "Sherpa")
	if err := repo.Approve(ctx, a.ID, approvedAt, m); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got, _ = repo.GetByID(ctx, a.ID)
	if got.Status != domain.ApplicationApproved || got.ApprovedAt == nil || !got.ApprovedAt.Equal(approvedAt) {
		t.Fatalf("approve not recorded: %+v", got)
	}
	if _, err := members.GetByID(ctx, m.ID); err != nil {
		t.Fatalf("member not written on approve: %v", err)
	}

	// A second decision on the same application loses.
	if err := repo.Approve(ctx, a.ID, approvedAt, m); !errors.Is(err, applicationrepoport.ErrNotPending) {
		t.Fatalf("Approve twice: want ErrNotPending, got %v", err)
	}
	if err := repo.Reject(ctx, a.ID, approvedAt); !errors.Is(err, applicationrepoport.ErrNotPending) {
		t.Fatalf("Reject after approve: want ErrNotPending, got %v", err)
	}
	if err := repo.Approve(ctx, domain.ApplicationID(uuid.NewString()), approvedAt, m); !errors.Is(err, applicationrepoport.ErrNotFound) {
		t.Fatalf("Approve missing: want ErrNotFound, got %v", err)
	}

	// Reject is terminal too.
	if err := repo.Reject(ctx, b.ID, approvedAt); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got, _ = repo.GetByID(ctx, b.ID)
	if got.Status != domain.ApplicationRejected || got.RejectedAt == nil {
		t.Fatalf("reject not recorded: %+v", got)
	}
	list, err = repo.List(ctx, domain.ApplicationPending)
	if err != nil || len(list) != 0 {
		t.Fatalf("List pending after decisions: n=%d err=%v", len(list), err)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, a.ID); !errors.Is(err, applicationrepoport.ErrNotFound) {
		t.Fatalf("Delete: application still present, err=%v", err)
	}
}

func RunAdminRepo(t *testing.T, newRepo AdminRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	ok, err := repo.IsAdmin(ctx, "nobody")
	if err != nil || ok {
		t.Fatalf("IsAdmin unknown: ok=%v err=%v", ok, err)
	}
	if _, err := repo.Get(ctx, "nobody"); !errors.Is(err, adminrepoport.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := adminrepoport.Admin{
		Subject:   "sub-admin",
		FirstName: "Karma",
		LastName:  "Dorjee",
		Email:     "karma@example.org",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Put(ctx, a); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err = repo.IsAdmin(ctx, a.Subject)
	if err != nil || !ok {
		t.Fatalf("IsAdmin: ok=%v err=%v", ok, err)
	}
	got, err := repo.Get(ctx, a.Subject)
	if err != nil || got.Email != "karma@example.org" {
		t.Fatalf("Get: %+v err=%v", got, err)
	}

	// Put is an upsert.
	a.Email = "karma.d@example.org"
	if err := repo.Put(ctx, a); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}
	got, _ = repo.Get(ctx, a.Subject)
	if got.Email != "karma.d@example.org" {
		t.Fatalf("upsert not applied: %+v", got)
	}
}

func RunIdentity(t *testing.T, newProvider IdentityFactory) {
	t.Helper()
	ctx := context.Background()

	ids, cleanup := newProvider(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	subject, err := ids.CreateAccount(ctx, "norbu@example.org", "correct horse battery")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if subject == "" {
		t.Fatal("CreateAccount returned empty subject")
	}

	// Email uniqueness is case-insensitive.
	if _, err := ids.CreateAccount(ctx, "Norbu@Example.org", "another pass"); !errors.Is(err, identityport.ErrEmailInUse) {
		t.Fatalf("CreateAccount duplicate: want ErrEmailInUse, got %v", err)
	}

	got, err := ids.Authenticate(ctx, "norbu@example.org", "correct horse battery")
	if err != nil || got != subject {
		t.Fatalf("Authenticate: subject=%v err=%v", got, err)
	}
	if _, err := ids.Authenticate(ctx, "norbu@example.org", "wrong"); !errors.Is(err, identityport.ErrInvalidCredentials) {
		t.Fatalf("Authenticate wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := ids.Authenticate(ctx, "ghost@example.org", "whatever"); !errors.Is(err, identityport.ErrInvalidCredentials) {
		t.Fatalf("Authenticate unknown email: want ErrInvalidCredentials, got %v", err)
	}

	if err := ids.UpdateEmail(ctx, subject, "norbu.t@example.org"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if _, err := ids.Authenticate(ctx, "norbu@example.org", "correct horse battery"); !errors.Is(err, identityport.ErrInvalidCredentials) {
		t.Fatalf("old email still authenticates: %v", err)
	}
	got, err = ids.Authenticate(ctx, "norbu.t@example.org", "correct horse battery")
	if err != nil || got != subject {
		t.Fatalf("Authenticate new email: subject=%v err=%v", got, err)
	}

	if err := ids.UpdatePassword(ctx, subject, "new password"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := ids.Authenticate(ctx, "norbu.t@example.org", "correct horse battery"); !errors.Is(err, identityport.ErrInvalidCredentials) {
		t.Fatalf("old password still authenticates: %v", err)
	}
	if _, err := ids.Authenticate(ctx, "norbu.t@example.org", "new password"); err != nil {
		t.Fatalf("Authenticate new password: %v", err)
	}

	if err := ids.UpdateEmail(ctx, "missing-subject", "x@example.org"); !errors.Is(err, identityport.ErrNotFound) {
		t.Fatalf("UpdateEmail missing: want ErrNotFound, got %v", err)
	}

	// Claiming another account's email is a conflict.
	other, err := ids.CreateAccount(ctx, "second@example.org", "pass pass pass")
	if err != nil {
		t.Fatalf("CreateAccount second: %v", err)
	}
	if err := ids.UpdateEmail(ctx, other, "norbu.t@example.org"); !errors.Is(err, identityport.ErrEmailInUse) {
		t.Fatalf("UpdateEmail conflict: want ErrEmailInUse, got %v", err)
	}
}
