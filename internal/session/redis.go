package session

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/redis"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis with a key TTL matching the session
// expiry, so replicas share logins.
type RedisStore struct {
	client *pkgredis.Client
	now    func() time.Time
}

func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.SetJSON(ctx, redisKeyPrefix+s.TokenHash, s, ttl); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, tokenHash string) (Session, error) {
	var s Session
	if err := r.client.GetJSON(ctx, redisKeyPrefix+tokenHash, &s); err != nil {
		if pkgredis.IsNilError(err) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("loading session: %w", err)
	}
	if s.Expired(r.now()) {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+tokenHash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteAll revokes every stored session.
func (r *RedisStore) DeleteAll(ctx context.Context) (int64, error) {
	return r.client.DeleteByPattern(ctx, redisKeyPrefix+"*")
}
