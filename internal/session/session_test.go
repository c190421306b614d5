package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/postgres/postgrestest"
	pkgredis "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/redis"
)

func testCredentials(t *testing.T) Credentials {
	t.Helper()
	creds, err := CredentialsFrom(config.AuthConfig{
		AdminEmail:    "admin@test.com",
		AdminPassword: "testpass10",
	})
	require.NoError(t, err)
	return creds
}

func TestCredentialsFrom(t *testing.T) {
	t.Run("plaintext is hashed", func(t *testing.T) {
		creds := testCredentials(t)
		assert.True(t, creds.Configured())
		assert.NoError(t, bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte("testpass10")))
	})

	t.Run("hash wins over plaintext", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("from-hash"), bcrypt.MinCost)
		require.NoError(t, err)
		creds, err := CredentialsFrom(config.AuthConfig{
			AdminEmail:        "admin@test.com",
			AdminPassword:     "ignored",
			AdminPasswordHash: string(hash),
		})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte("from-hash")))
	})

	t.Run("malformed hash", func(t *testing.T) {
		_, err := CredentialsFrom(config.AuthConfig{AdminEmail: "a@b.c", AdminPasswordHash: "nope"})
		assert.Error(t, err)
	})

	t.Run("no password", func(t *testing.T) {
		creds, err := CredentialsFrom(config.AuthConfig{AdminEmail: "a@b.c"})
		require.NoError(t, err)
		assert.False(t, creds.Configured())
	})
}

func TestManagerLogin(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testCredentials(t), NewMemoryStore(), time.Hour)

	tests := []struct {
		name     string
		email    string
		password string
		ok       bool
	}{
		{"valid", "admin@test.com", "testpass10", true},
		{"email case and spaces", "  Admin@Test.com ", "testpass10", true},
		{"wrong password", "admin@test.com", "testpass11", false},
		{"wrong email", "root@test.com", "testpass10", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, s, err := m.Login(ctx, tt.email, tt.password)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Empty(t, raw)
				return
			}
			require.NoError(t, err)
			assert.Len(t, raw, 64)
			assert.Equal(t, HashToken(raw), s.TokenHash)
			assert.Equal(t, "admin", s.Subject)
			assert.Equal(t, time.Hour, s.ExpiresAt.Sub(s.CreatedAt))
		})
	}
}

func TestManagerUnconfiguredRejectsEverything(t *testing.T) {
	m := NewManager(Credentials{Email: "admin@test.com"}, NewMemoryStore(), time.Hour)
	_, _, err := m.Login(context.Background(), "admin@test.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManagerValidateAndLogout(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testCredentials(t), NewMemoryStore(), time.Hour)

	raw, _, err := m.Login(ctx, "admin@test.com", "testpass10")
	require.NoError(t, err)

	s, err := m.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "admin", s.Subject)

	_, err = m.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Validate(ctx, "forged")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, m.Logout(ctx, raw))
	_, err = m.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, m.Logout(ctx, raw))
	assert.NoError(t, m.Logout(ctx, ""))
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(testCredentials(t), store, time.Hour)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	store.now = func() time.Time { return now }

	raw, _, err := m.Login(ctx, "admin@test.com", "testpass10")
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = m.Validate(ctx, raw)
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStorePrunesOnSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, Session{TokenHash: "old", ExpiresAt: now.Add(time.Minute)}))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, Session{TokenHash: "new", ExpiresAt: now.Add(time.Minute)}))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.NotContains(t, store.sessions, "old")
	assert.Contains(t, store.sessions, "new")
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(pkgredis.Wrap(rdb, "blog:")), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	now := time.Now()
	s := Session{TokenHash: "abc", Subject: "admin", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	require.NoError(t, store.Save(ctx, s))
	assert.True(t, mr.Exists("blog:session:abc"))
	ttl := mr.TTL("blog:session:abc")
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Subject)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreKeyExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	now := time.Now()
	require.NoError(t, store.Save(ctx, Session{TokenHash: "abc", ExpiresAt: now.Add(time.Minute)}))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreDeleteAll(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	exp := time.Now().Add(time.Hour)
	require.NoError(t, store.Save(ctx, Session{TokenHash: "a", ExpiresAt: exp}))
	require.NoError(t, store.Save(ctx, Session{TokenHash: "b", ExpiresAt: exp}))

	n, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestManagerWithRedisStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	m := NewManager(testCredentials(t), store, time.Hour)

	raw, _, err := m.Login(ctx, "admin@test.com", "testpass10")
	require.NoError(t, err)
	_, err = m.Validate(ctx, raw)
	assert.NoError(t, err)
}

func TestPostgresStore(t *testing.T) {
	db := postgrestest.Open(t)
	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = db.DB.ExecContext(context.Background(), `DELETE FROM admin_sessions WHERE token_hash LIKE 'test-%'`)
	})

	now := time.Now().UTC().Truncate(time.Microsecond)
	live := Session{TokenHash: "test-live", Subject: "admin", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := Session{TokenHash: "test-dead", Subject: "admin", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, dead))

	got, err := store.Get(ctx, "test-live")
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Equal(live.ExpiresAt))

	_, err = store.Get(ctx, "test-dead")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	require.NoError(t, store.Delete(ctx, "test-live"))
	_, err = store.Get(ctx, "test-live")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
