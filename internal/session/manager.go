package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
)

const subjectAdmin = "admin"

// Credentials identify the single administrator account.
type Credentials struct {
	Email        string
	PasswordHash []byte
}

// CredentialsFrom builds admin credentials from config. A plaintext
// AdminPassword is hashed here so the manager never compares plaintext.
func CredentialsFrom(cfg config.AuthConfig) (Credentials, error) {
	creds := Credentials{Email: strings.TrimSpace(cfg.AdminEmail)}
	switch {
	case cfg.AdminPasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
			return Credentials{}, fmt.Errorf("parsing admin password hash: %w", err)
		}
		creds.PasswordHash = []byte(cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return Credentials{}, fmt.Errorf("hashing admin password: %w", err)
		}
		creds.PasswordHash = hash
	}
	return creds, nil
}

// Configured reports whether a login can ever succeed.
func (c Credentials) Configured() bool {
	return c.Email != "" && len(c.PasswordHash) > 0
}

// Manager issues, validates and revokes admin sessions.
type Manager struct {
	creds  Credentials
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewManager(creds Credentials, store Store, ttl time.Duration) *Manager {
	return &Manager{
		creds:  creds,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default().With("component", "session"),
	}
}

// TTL is the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login checks the credentials and returns a new raw session token. The
// email comparison is case-insensitive; both checks always run so timing
// does not reveal which one failed.
func (m *Manager) Login(ctx context.Context, email, password string) (string, Session, error) {
	if !m.creds.Configured() {
		return "", Session{}, ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(m.creds.Email)),
	) == 1
	passErr := bcrypt.CompareHashAndPassword(m.creds.PasswordHash, []byte(password))
	if !emailOK || passErr != nil {
		m.logger.Warn("admin login rejected", "email_match", emailOK)
		return "", Session{}, ErrInvalidCredentials
	}

	raw, err := generateToken()
	if err != nil {
		return "", Session{}, fmt.Errorf("generating session token: %w", err)
	}
	now := m.now()
	s := Session{
		TokenHash: HashToken(raw),
		Subject:   subjectAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return "", Session{}, err
	}
	m.logger.Info("admin session created", "expires_at", s.ExpiresAt)
	return raw, s, nil
}

// Validate resolves a raw token to its session. Empty, unknown and expired
// tokens all yield ErrSessionNotFound.
func (m *Manager) Validate(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, ErrSessionNotFound
	}
	s, err := m.store.Get(ctx, HashToken(raw))
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Logout revokes the session behind raw. Unknown tokens are not an error.
func (m *Manager) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	err := m.store.Delete(ctx, HashToken(raw))
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}
