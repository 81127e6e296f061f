package members_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	memadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/adminrepo"
	memclock "github.com/tanc-norcal/membership-api/internal/adapters/memory/clock"
	memidentity "github.com/tanc-norcal/membership-api/internal/adapters/memory/identity"
	memmediastore "github.com/tanc-norcal/membership-api/internal/adapters/memory/mediastore"
	memmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/memberrepo"
	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/domain"
	adminrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
	memberrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

type fixture struct {
	svc    *members.Service
	repo   *memmemberrepo.Repo
	admins *memadminrepo.Repo
	ids    *memidentity.Provider
	media  *memmediastore.Store
	clk    *memclock.ManualClock
}

func newFixture(start time.Time) fixture {
	repo := memmemberrepo.NewRepo()
	admins := memadminrepo.NewRepo()
	ids := memidentity.NewProvider()
	media := memmediastore.NewStore()
	clk := memclock.NewManualClock(start)
	svc := members.NewService(repo, admins, ids, media, clk, zerolog.Nop())
	return fixture{svc: svc, repo: repo, admins: admins, ids: ids, media: media, clk: clk}
}

func seed(t *testing.T, repo *memmemberrepo.Repo, first, last, email string, expires time.Time) memberrepoport.Member {
	t.Helper()
	created := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	m := memberrepoport.Member{
		ID:            domain.MemberID("sub-" + first),
		Subject:       domain.SubjectID("sub-" + first),
		FirstName:     first,
		LastName:      last,
		DateOfBirth:   "1980-06-15",
		Gender:        "female",
		Email:         email,
		HomeAddress:   "12 Main St, Richmond CA",
		PhotoURL:      "https://img.example/" + first + ".jpg",
		PhotoPublicID: "headshots/" + first,
		MemberSince:   "2021-05-01",
		ExpiresAt:     expires,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if err := repo.Upsert(context.Background(), m); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m
}

func TestService_GetProfile_UnknownAccount(t *testing.T) {
	t.Parallel()

	fx := newFixture(time.Unix(100, 0).UTC())

	_, err := fx.svc.GetProfile(context.Background(), "sub-ghost")
	ae := (*members.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "ACCOUNT_NOT_FOUND" {
		t.Fatalf("err=%v, want ACCOUNT_NOT_FOUND 404", err)
	}
}

func TestService_GetProfile_MemberAndAdminVariants(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)
	seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", now.AddDate(1, 0, 0))

	if err := fx.admins.Put(context.Background(), adminrepoport.Admin{
		Subject: "sub-karma", FirstName: "Karma", LastName: "Dorjee", Email: "karma@example.org",
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	p, err := fx.svc.GetProfile(context.Background(), "sub-Tenzin")
	if err != nil {
		t.Fatalf("GetProfile member: %v", err)
	}
	if p.Kind != domain.ProfileMember || p.Member == nil || p.Admin != nil {
		t.Fatalf("profile=%+v, want member variant", p)
	}
	if p.Member.Identity.FullName() != "Tenzin Lhamo" {
		t.Fatalf("name=%q", p.Member.Identity.FullName())
	}

	p, err = fx.svc.GetProfile(context.Background(), "sub-karma")
	if err != nil {
		t.Fatalf("GetProfile admin: %v", err)
	}
	if p.Kind != domain.ProfileAdmin || p.Admin == nil || p.Member != nil {
		t.Fatalf("profile=%+v, want admin variant", p)
	}
}

func TestService_UpdateProfile_MemberFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)
	seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", now.AddDate(1, 0, 0))

	fx.clk.Advance(time.Hour)
	p, err := fx.svc.UpdateProfile(context.Background(), "sub-Tenzin", members.UpdateProfileInput{
		MiddleName:  members.Some("  Gyatso "),
		HomeAddress: members.Some(" 99 New Ave, Albany CA "),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Member.Identity.MiddleName != "Gyatso" || p.Member.Identity.HomeAddress != "99 New Ave, Albany CA" {
		t.Fatalf("identity=%+v", p.Member.Identity)
	}
	if !p.Member.UpdatedAt.Equal(fx.clk.Now()) {
		t.Fatalf("updatedAt=%v", p.Member.UpdatedAt)
	}

	// Null clears the middle name; an unspecified field stays put.
	p, err = fx.svc.UpdateProfile(context.Background(), "sub-Tenzin", members.UpdateProfileInput{
		MiddleName: members.Null[string](),
	})
	if err != nil {
		t.Fatalf("UpdateProfile clear: %v", err)
	}
	if p.Member.Identity.MiddleName != "" {
		t.Fatalf("middle name not cleared: %q", p.Member.Identity.MiddleName)
	}
	if p.Member.Identity.HomeAddress != "99 New Ave, Albany CA" {
		t.Fatalf("address lost: %q", p.Member.Identity.HomeAddress)
	}

	_, err = fx.svc.UpdateProfile(context.Background(), "sub-Tenzin", members.UpdateProfileInput{
		FirstName: members.Some("   "),
	})
	ae := (*members.Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("blank first name err=%v", err)
	}
}

func TestService_UpdateProfile_EmailGoesThroughIdentity(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)

	// The member's account exists in the identity provider under a known
	// subject; the member record mirrors that subject.
	sub, err := fx.ids.CreateAccount(context.Background(), "tenzin@example.org", "pass pass pass")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	m := seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", now.AddDate(1, 0, 0))
	m.ID = domain.MemberID(sub)
	m.Subject = sub
	if err := fx.repo.Upsert(context.Background(), m); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	if _, err := fx.ids.CreateAccount(context.Background(), "taken@example.org", "pass pass pass"); err != nil {
		t.Fatalf("CreateAccount second: %v", err)
	}

	// Claiming a taken email surfaces a conflict and leaves the record alone.
	_, err = fx.svc.UpdateProfile(context.Background(), sub, members.UpdateProfileInput{
		Email: members.Some("taken@example.org"),
	})
	ae := (*members.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "EMAIL_ALREADY_IN_USE" {
		t.Fatalf("err=%v, want EMAIL_ALREADY_IN_USE 409", err)
	}
	got, _ := fx.repo.GetByID(context.Background(), m.ID)
	if got.Email != "tenzin@example.org" {
		t.Fatalf("email changed despite conflict: %q", got.Email)
	}

	// A fresh email updates both the account and the record.
	p, err := fx.svc.UpdateProfile(context.Background(), sub, members.UpdateProfileInput{
		Email: members.Some("tenzin.l@example.org"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Member.Identity.Email != "tenzin.l@example.org" {
		t.Fatalf("email=%q", p.Member.Identity.Email)
	}
	if _, err := fx.ids.Authenticate(context.Background(), "tenzin.l@example.org", "pass pass pass"); err != nil {
		t.Fatalf("account email not updated: %v", err)
	}
}

func TestService_UpdateProfile_PhotoReplacementDestroysOld(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)
	seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", now.AddDate(1, 0, 0))

	p, err := fx.svc.UpdateProfile(context.Background(), "sub-Tenzin", members.UpdateProfileInput{
		Photo: members.Some(domain.ImageRef{URL: "https://img.example/new.jpg", PublicID: "headshots/new"}),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Member.Photo == nil || p.Member.Photo.PublicID != "headshots/new" {
		t.Fatalf("photo=%+v", p.Member.Photo)
	}
	if len(fx.media.Destroyed) != 1 || fx.media.Destroyed[0] != "headshots/Tenzin" {
		t.Fatalf("destroyed=%v, want old photo", fx.media.Destroyed)
	}
}

func TestService_GetCard(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)
	seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC))

	card, err := fx.svc.GetCard(context.Background(), "sub-Tenzin")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if card.Name != "Tenzin Lhamo" || card.MemberSince != "2021-05-01" || card.ExpiresAt != "2027-05-01" {
		t.Fatalf("card=%+v", card)
	}
	if card.Status != domain.MemberActive {
		t.Fatalf("status=%q", card.Status)
	}

	// Past the window the same card reads expired.
	fx.clk.Set(time.Date(2027, 5, 2, 0, 0, 0, 0, time.UTC))
	card, err = fx.svc.GetCard(context.Background(), "sub-Tenzin")
	if err != nil {
		t.Fatalf("GetCard after expiry: %v", err)
	}
	if card.Status != domain.MemberExpired {
		t.Fatalf("status=%q, want expired", card.Status)
	}

	_, err = fx.svc.GetCard(context.Background(), "sub-ghost")
	ae := (*members.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "MEMBER_NOT_FOUND" {
		t.Fatalf("err=%v, want MEMBER_NOT_FOUND 404", err)
	}
}

func TestService_Directory_FilterSearchSort(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)
	seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", now.AddDate(1, 0, 0))
	seed(t, fx.repo, "Pema", "Bhutia", "pema@example.org", now.AddDate(-1, 0, 0))
	seed(t, fx.repo, "Dolma", "Sherpa", "dolma@example.org", now.AddDate(2, 0, 0))

	all, err := fx.svc.Directory(context.Background(), members.DirectoryQuery{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(all) != 3 || all[0].Member.Identity.FirstName != "Dolma" || all[2].Member.Identity.FirstName != "Tenzin" {
		t.Fatalf("default order wrong: %+v", all)
	}

	active, err := fx.svc.Directory(context.Background(), members.DirectoryQuery{Status: domain.MemberActive})
	if err != nil {
		t.Fatalf("Directory active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active=%d, want 2", len(active))
	}
	for _, e := range active {
		if e.Status != domain.MemberActive {
			t.Fatalf("entry status=%q", e.Status)
		}
	}

	expired, err := fx.svc.Directory(context.Background(), members.DirectoryQuery{Status: domain.MemberExpired})
	if err != nil || len(expired) != 1 || expired[0].Member.Identity.FirstName != "Pema" {
		t.Fatalf("expired=%+v err=%v", expired, err)
	}

	// Search is case-insensitive over name and email.
	found, err := fx.svc.Directory(context.Background(), members.DirectoryQuery{Query: "LHAMO"})
	if err != nil || len(found) != 1 || found[0].Member.Identity.FirstName != "Tenzin" {
		t.Fatalf("name search=%+v err=%v", found, err)
	}
	found, err = fx.svc.Directory(context.Background(), members.DirectoryQuery{Query: "pema@"})
	if err != nil || len(found) != 1 || found[0].Member.Identity.FirstName != "Pema" {
		t.Fatalf("email search=%+v err=%v", found, err)
	}

	byExpiry, err := fx.svc.Directory(context.Background(), members.DirectoryQuery{Sort: members.SortByExpiry})
	if err != nil {
		t.Fatalf("Directory by expiry: %v", err)
	}
	if byExpiry[0].Member.Identity.FirstName != "Pema" || byExpiry[2].Member.Identity.FirstName != "Dolma" {
		t.Fatalf("expiry order wrong: %+v", byExpiry)
	}

	if _, err := fx.svc.Directory(context.Background(), members.DirectoryQuery{Status: "suspended"}); err == nil {
		t.Fatalf("unknown status filter must fail")
	}
}

func TestService_RemoveMember(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx := newFixture(now)
	m := seed(t, fx.repo, "Tenzin", "Lhamo", "tenzin@example.org", now.AddDate(1, 0, 0))
	fx.media.DestroyErr = errors.New("cloud down")

	if err := fx.svc.RemoveMember(context.Background(), m.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if _, err := fx.repo.GetByID(context.Background(), m.ID); err == nil {
		t.Fatalf("member survived removal")
	}
	if len(fx.media.Destroyed) != 1 {
		t.Fatalf("destroyed=%v, want one photo attempt", fx.media.Destroyed)
	}

	err := fx.svc.RemoveMember(context.Background(), m.ID)
	ae := (*members.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "MEMBER_NOT_FOUND" {
		t.Fatalf("second removal err=%v, want MEMBER_NOT_FOUND 404", err)
	}
}
