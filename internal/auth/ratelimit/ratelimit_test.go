package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(limit int, window time.Duration) (*Limiter, *time.Time) {
	l := New(limit, window)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowExhaustsAndRefills(t *testing.T) {
	l, now := newTestLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")

	*now = now.Add(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refilled after a third of the window")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	defer l.Close()

	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))
	l.Reset("ip")
	assert.True(t, l.Allow("ip"))
}

func TestEvictBefore(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)
	defer l.Close()

	l.Allow("old")
	*now = now.Add(5 * time.Minute)
	l.Allow("new")
	l.evictBefore(now.Add(-2 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.entries, "old")
	assert.Contains(t, l.entries, "new")
}
