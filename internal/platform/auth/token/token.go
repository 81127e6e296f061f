package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tanc-norcal/membership-api/internal/domain"
	clockport "github.com/tanc-norcal/membership-api/internal/ports/out/clock"
)

// ErrInvalidToken covers every verification failure; callers never learn why
// a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "membership-api"

// Manager issues and verifies HS256 session tokens. The subject claim is the
// identity subject; role decisions are made per request against the admins
// store, never from the token.
type Manager struct {
	secret []byte
	ttl    time.Duration
	clk    clockport.Clock
}

func NewManager(secret []byte, ttl time.Duration, clk clockport.Clock) (*Manager, error) {
	if len(secret) < 16 {
		return nil, errors.New("token secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: secret, ttl: ttl, clk: clk}, nil
}

func (m *Manager) Issue(subject domain.SubjectID) (string, error) {
	now := m.clk.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   string(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) Verify(raw string) (domain.SubjectID, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.clk.Now),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return domain.SubjectID(claims.Subject), nil
}
