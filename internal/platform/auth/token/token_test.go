package token

import (
	"errors"
	"testing"
	"time"

	memclock "github.com/tanc-norcal/membership-api/internal/adapters/memory/clock"
)

func TestManager_IssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	m, err := NewManager([]byte("0123456789abcdef"), time.Hour, clk)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	tok, err := m.Issue("sub-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := m.Verify(tok)
	if err != nil || sub != "sub-1" {
		t.Fatalf("Verify: sub=%q err=%v", sub, err)
	}
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	m, _ := NewManager([]byte("0123456789abcdef"), time.Hour, clk)

	tok, err := m.Issue("sub-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: err=%v, want ErrInvalidToken", err)
	}
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	a, _ := NewManager([]byte("0123456789abcdef"), time.Hour, clk)
	b, _ := NewManager([]byte("fedcba9876543210"), time.Hour, clk)

	tok, err := a.Issue("sub-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature: err=%v, want ErrInvalidToken", err)
	}

	if _, err := a.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: err=%v, want ErrInvalidToken", err)
	}
}

func TestNewManager_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(0, 0).UTC())
	if _, err := NewManager([]byte("short"), time.Hour, clk); err == nil {
		t.Fatalf("short secret accepted")
	}
}
