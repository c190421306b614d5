package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/postgres"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS admin_sessions (
		token_hash TEXT PRIMARY KEY,
		subject    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS admin_sessions_expires_at_idx ON admin_sessions (expires_at)`,
}

// PostgresStore keeps sessions in the admin_sessions table.
type PostgresStore struct {
	db  *postgres.Client
	now func() time.Time
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the admin_sessions table when it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	return p.db.Migrate(ctx, postgresSchema...)
}

func (p *PostgresStore) Save(ctx context.Context, s Session) error {
	_, err := p.db.DB.ExecContext(ctx,
		`INSERT INTO admin_sessions (token_hash, subject, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token_hash) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		s.TokenHash, s.Subject, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, tokenHash string) (Session, error) {
	s := Session{TokenHash: tokenHash}
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT subject, created_at, expires_at FROM admin_sessions
		 WHERE token_hash = $1 AND expires_at > $2`,
		tokenHash, p.now(),
	).Scan(&s.Subject, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading session: %w", err)
	}
	return s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, tokenHash string) error {
	if _, err := p.db.DB.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := p.db.DB.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
