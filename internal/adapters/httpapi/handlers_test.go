package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanc-norcal/membership-api/internal/adapters/httpapi"
	memadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/adminrepo"
	memapplicationrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/applicationrepo"
	memclock "github.com/tanc-norcal/membership-api/internal/adapters/memory/clock"
	memidentity "github.com/tanc-norcal/membership-api/internal/adapters/memory/identity"
	memmediastore "github.com/tanc-norcal/membership-api/internal/adapters/memory/mediastore"
	memmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/memberrepo"
	"github.com/tanc-norcal/membership-api/internal/app/applications"
	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/platform/auth/token"
	adminrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
)

type api struct {
	handler http.Handler
	ids     *memidentity.Provider
	admins  *memadminrepo.Repo
	media   *memmediastore.Store
	clk     *memclock.ManualClock
	tokens  *token.Manager
}

func newAPI(t *testing.T) *api {
	t.Helper()

	membersRepo := memmemberrepo.NewRepo()
	appsRepo := memapplicationrepo.NewRepo(membersRepo)
	adminsRepo := memadminrepo.NewRepo()
	ids := memidentity.NewProvider()
	media := memmediastore.NewStore()
	clk := memclock.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	tokens, err := token.NewManager([]byte("0123456789abcdef"), time.Hour, clk)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	appSvc := applications.NewService(appsRepo, membersRepo, media, clk, zerolog.Nop())
	memberSvc := members.NewService(membersRepo, adminsRepo, ids, media, clk, zerolog.Nop())

	srv := httpapi.NewServer(appSvc, memberSvc, ids, adminsRepo, media, tokens)
	handler := httpapi.NewRouter(srv, httpapi.RouterOptions{
		Auth:           httpapi.NewAuthMiddleware(tokens),
		Admin:          httpapi.NewAdminMiddleware(adminsRepo),
		AllowedOrigins: []string{"*"},
		Logger:         zerolog.Nop(),
	})

	return &api{handler: handler, ids: ids, admins: adminsRepo, media: media, clk: clk, tokens: tokens}
}

func (a *api) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) grantAdmin(t *testing.T, email, password string) string {
	t.Helper()
	sub, err := a.ids.CreateAccount(context.Background(), email, password)
	if err != nil {
		t.Fatalf("create admin account: %v", err)
	}
	if err := a.admins.Put(context.Background(), adminrepoport.Admin{
		Subject: sub, FirstName: "Karma", LastName: "Dorjee", Email: email,
	}); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	tok, err := a.tokens.Issue(sub)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func submitBody(email string) map[string]any {
	return map[string]any{
		"account":     map[string]any{"email": email, "password": "pass pass pass"},
		"firstName":   "Dolma",
		"lastName":    "Sherpa",
		"dateOfBirth": "1990-01-20",
		"gender":      "female",
		"homeAddress": "88 Hill Rd, El Cerrito CA",
		"memberSince": "2026-03-01",
		"headshot":    map[string]any{"url": "https://img.example/d.jpg", "publicId": "headshots/d"},
		"wantCard":    true,
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	a := newAPI(t)
	a.grantAdmin(t, "karma@example.org", "pass pass pass")

	rec := a.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "karma@example.org", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: code=%d", rec.Code)
	}

	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "karma@example.org", "password": "pass pass pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token   string `json:"token"`
		Subject string `json:"subject"`
		IsAdmin bool   `json:"isAdmin"`
	}
	decodeBody(t, rec, &out)
	if out.Token == "" || out.Subject == "" || !out.IsAdmin {
		t.Fatalf("login response: %+v", out)
	}

	// The returned token works against an authenticated route.
	rec = a.do(t, http.MethodGet, "/me", out.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /me with login token: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	a := newAPI(t)
	adminTok := a.grantAdmin(t, "karma@example.org", "pass pass pass")

	// Submission is public and creates the applicant's account.
	rec := a.do(t, http.MethodPost, "/applications", "", submitBody("dolma@example.org"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		Application struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"application"`
		Confirmation struct {
			FirstName string `json:"firstName"`
			Type      string `json:"type"`
		} `json:"confirmation"`
	}
	decodeBody(t, rec, &submitted)
	if submitted.Application.Status != "pending" || submitted.Confirmation.FirstName != "Dolma" {
		t.Fatalf("submit response: %+v", submitted)
	}

	// Duplicate email is a conflict.
	rec = a.do(t, http.MethodPost, "/applications", "", submitBody("dolma@example.org"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: code=%d", rec.Code)
	}

	// The applicant can log in but sees no profile until approval.
	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "dolma@example.org", "password": "pass pass pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("applicant login: code=%d", rec.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &login)
	rec = a.do(t, http.MethodGet, "/me", login.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /me before approval: code=%d", rec.Code)
	}

	// Review queue and approval.
	rec = a.do(t, http.MethodGet, "/applications?status=pending", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Applications []struct {
			ID string `json:"id"`
		} `json:"applications"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Applications) != 1 || listed.Applications[0].ID != submitted.Application.ID {
		t.Fatalf("listed=%+v", listed)
	}

	a.clk.Set(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	rec = a.do(t, http.MethodPost, "/applications/"+submitted.Application.ID+"/approve", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var approved struct {
		Member struct {
			ID        string    `json:"id"`
			ExpiresAt time.Time `json:"expiresAt"`
			Status    string    `json:"status"`
		} `json:"member"`
	}
	decodeBody(t, rec, &approved)
	want := time.Date(2031, 3, 10, 12, 0, 0, 0, time.UTC)
	if !approved.Member.ExpiresAt.Equal(want) || approved.Member.Status != "active" {
		t.Fatalf("approved member: %+v", approved.Member)
	}

	// A second decision conflicts.
	rec = a.do(t, http.MethodPost, "/applications/"+submitted.Application.ID+"/reject", adminTok, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("reject after approve: code=%d", rec.Code)
	}

	// The new member now has a profile and a card.
	rec = a.do(t, http.MethodGet, "/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /me after approval: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var prof struct {
		Profile struct {
			Kind   string `json:"kind"`
			Member struct {
				MemberSince string `json:"memberSince"`
			} `json:"member"`
		} `json:"profile"`
	}
	decodeBody(t, rec, &prof)
	if prof.Profile.Kind != "member" || prof.Profile.Member.MemberSince != "2026-03-01" {
		t.Fatalf("profile=%+v", prof)
	}

	rec = a.do(t, http.MethodGet, "/me/card", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /me/card: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var card struct {
		Card struct {
			Name      string `json:"name"`
			ExpiresAt string `json:"expiresAt"`
			Status    string `json:"status"`
		} `json:"card"`
	}
	decodeBody(t, rec, &card)
	if card.Card.Name != "Dolma Sherpa" || card.Card.ExpiresAt != "2031-03-10" || card.Card.Status != "active" {
		t.Fatalf("card=%+v", card.Card)
	}

	// The member shows up in the admin directory.
	rec = a.do(t, http.MethodGet, "/members?q=sherpa", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("directory: code=%d", rec.Code)
	}
	var dir struct {
		Members []struct {
			FirstName string `json:"firstName"`
		} `json:"members"`
	}
	decodeBody(t, rec, &dir)
	if len(dir.Members) != 1 || dir.Members[0].FirstName != "Dolma" {
		t.Fatalf("directory=%+v", dir)
	}
}

func TestAdminRoutesAreGated(t *testing.T) {
	t.Parallel()

	a := newAPI(t)

	// No token at all.
	rec := a.do(t, http.MethodGet, "/applications", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: code=%d", rec.Code)
	}

	// Authenticated but not an admin.
	sub, err := a.ids.CreateAccount(context.Background(), "plain@example.org", "pass pass pass")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	tok, err := a.tokens.Issue(sub)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	for _, path := range []string{"/applications", "/members"} {
		rec = a.do(t, http.MethodGet, path, tok, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("GET %s as non-admin: code=%d", path, rec.Code)
		}
	}

	// Garbage token.
	rec = a.do(t, http.MethodGet, "/me", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: code=%d", rec.Code)
	}
}

func TestRenewalOverHTTP(t *testing.T) {
	t.Parallel()

	a := newAPI(t)
	adminTok := a.grantAdmin(t, "karma@example.org", "pass pass pass")

	rec := a.do(t, http.MethodPost, "/applications", "", submitBody("dolma@example.org"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: code=%d", rec.Code)
	}
	var submitted struct {
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
	}
	decodeBody(t, rec, &submitted)
	rec = a.do(t, http.MethodPost, "/applications/"+submitted.Application.ID+"/approve", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code=%d", rec.Code)
	}

	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "dolma@example.org", "password": "pass pass pass",
	})
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &login)

	// Renewals are sparse: omitted fields fall back to the member record,
	// and the original join date always survives.
	a.clk.Set(time.Date(2031, 2, 1, 10, 0, 0, 0, time.UTC))
	rec = a.do(t, http.MethodPost, "/renewals", login.Token, map[string]any{
		"homeAddress": "99 New Ave, Albany CA",
		"memberSince": "2031-01-01",
	})
	if rec.Code != http.StatusBadRequest {
		// memberSince is not an accepted renewal field at all.
		t.Fatalf("renewal with memberSince: code=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = a.do(t, http.MethodPost, "/renewals", login.Token, map[string]any{
		"homeAddress": "99 New Ave, Albany CA",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("renewal: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var renewal struct {
		Application struct {
			ID          string `json:"id"`
			Type        string `json:"type"`
			MemberSince string `json:"memberSince"`
			HomeAddress string `json:"homeAddress"`
			FirstName   string `json:"firstName"`
		} `json:"application"`
	}
	decodeBody(t, rec, &renewal)
	if renewal.Application.Type != "renewal" || renewal.Application.MemberSince != "2026-03-01" {
		t.Fatalf("renewal application: %+v", renewal.Application)
	}
	if renewal.Application.FirstName != "Dolma" || renewal.Application.HomeAddress != "99 New Ave, Albany CA" {
		t.Fatalf("fallback fields: %+v", renewal.Application)
	}

	rec = a.do(t, http.MethodPost, "/applications/"+renewal.Application.ID+"/approve", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve renewal: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var approved struct {
		Member struct {
			MemberSince string    `json:"memberSince"`
			ExpiresAt   time.Time `json:"expiresAt"`
		} `json:"member"`
	}
	decodeBody(t, rec, &approved)
	if approved.Member.MemberSince != "2026-03-01" {
		t.Fatalf("join date lost: %+v", approved.Member)
	}
	want := time.Date(2036, 2, 1, 10, 0, 0, 0, time.UTC)
	if !approved.Member.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt=%v, want %v", approved.Member.ExpiresAt, want)
	}
}

func TestPatchMeDistinguishesNullFromAbsent(t *testing.T) {
	t.Parallel()

	a := newAPI(t)
	adminTok := a.grantAdmin(t, "karma@example.org", "pass pass pass")

	body := submitBody("dolma@example.org")
	body["middleName"] = "Tsering"
	rec := a.do(t, http.MethodPost, "/applications", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: code=%d", rec.Code)
	}
	var submitted struct {
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
	}
	decodeBody(t, rec, &submitted)
	rec = a.do(t, http.MethodPost, "/applications/"+submitted.Application.ID+"/approve", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code=%d", rec.Code)
	}

	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "dolma@example.org", "password": "pass pass pass",
	})
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &login)

	// Raw JSON so that null survives encoding.
	req := httptest.NewRequest(http.MethodPatch, "/me", strings.NewReader(`{"middleName":null}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH /me: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var prof struct {
		Profile struct {
			Member struct {
				MiddleName string `json:"middleName"`
				FirstName  string `json:"firstName"`
			} `json:"member"`
		} `json:"profile"`
	}
	decodeBody(t, rec, &prof)
	if prof.Profile.Member.MiddleName != "" || prof.Profile.Member.FirstName != "Dolma" {
		t.Fatalf("profile after clear: %+v", prof.Profile.Member)
	}

	rec = a.do(t, http.MethodPatch, "/me", login.Token, map[string]any{"unknown": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown patch field: code=%d", rec.Code)
	}
}

func TestMediaUpload(t *testing.T) {
	t.Parallel()

	a := newAPI(t)
	adminTok := a.grantAdmin(t, "karma@example.org", "pass pass pass")

	// Minimal valid PNG header followed by padding.
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(png); err != nil {
		t.Fatalf("write png: %v", err)
	}
	if err := mw.WriteField("kind", "headshot"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminTok)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		URL      string `json:"url"`
		PublicID string `json:"publicId"`
	}
	decodeBody(t, rec, &out)
	if out.URL == "" || !strings.HasPrefix(out.PublicID, "headshots/") {
		t.Fatalf("upload response: %+v", out)
	}
	if !a.media.Has(out.PublicID) {
		t.Fatalf("asset not stored")
	}

	// Non-image payloads are refused.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, _ = mw.CreateFormFile("file", "notes.txt")
	fmt.Fprint(fw, "just text")
	mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminTok)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("text upload: code=%d body=%s", rec.Code, rec.Body.String())
	}
}
