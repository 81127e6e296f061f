package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/identity"
)

type account struct {
	subject domain.SubjectID
	email   string
	hash    []byte
}

// Provider is an in-memory implementation of identity.Provider. Credentials
// are bcrypt-hashed the same way the Postgres adapter stores them, so the two
// backends are interchangeable in tests.
type Provider struct {
	mu         sync.RWMutex
	bySubject  map[domain.SubjectID]*account
	subByEmail map[string]domain.SubjectID
}

func NewProvider() *Provider {
	return &Provider{
		bySubject:  make(map[domain.SubjectID]*account),
		subByEmail: make(map[string]domain.SubjectID),
	}
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (domain.SubjectID, error) {
	_ = ctx
	key := emailKey(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subByEmail[key]; ok {
		return "", identity.ErrEmailInUse
	}
	sub := domain.SubjectID(uuid.NewString())
	p.bySubject[sub] = &account{subject: sub, email: key, hash: hash}
	p.subByEmail[key] = sub
	return sub, nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (domain.SubjectID, error) {
	_ = ctx
	p.mu.RLock()
	sub, ok := p.subByEmail[emailKey(email)]
	var a *account
	if ok {
		a = p.bySubject[sub]
	}
	p.mu.RUnlock()
	if a == nil {
		return "", identity.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return "", identity.ErrInvalidCredentials
	}
	return a.subject, nil
}

func (p *Provider) UpdateEmail(ctx context.Context, subject domain.SubjectID, email string) error {
	_ = ctx
	key := emailKey(email)
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.bySubject[subject]
	if !ok {
		return identity.ErrNotFound
	}
	if other, taken := p.subByEmail[key]; taken && other != subject {
		return identity.ErrEmailInUse
	}
	delete(p.subByEmail, a.email)
	a.email = key
	p.subByEmail[key] = subject
	return nil
}

func (p *Provider) UpdatePassword(ctx context.Context, subject domain.SubjectID, password string) error {
	_ = ctx
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.bySubject[subject]
	if !ok {
		return identity.ErrNotFound
	}
	a.hash = hash
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
