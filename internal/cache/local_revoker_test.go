package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestLocalRevokerExpires(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{t: time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)}
	r := NewLocalRevoker(clock.Now)

	require.NoError(t, r.Revoke(ctx, "s1", time.Minute))
	require.NoError(t, r.Revoke(ctx, "s2", time.Hour))
	require.NoError(t, r.Revoke(ctx, "s3", 0))

	revoked, err := r.Revoked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, _ = r.Revoked(ctx, "s3")
	assert.False(t, revoked)
	assert.Equal(t, 2, r.Len())

	clock.Advance(time.Minute)
	revoked, _ = r.Revoked(ctx, "s1")
	assert.False(t, revoked)
	revoked, _ = r.Revoked(ctx, "s2")
	assert.True(t, revoked)
	assert.Equal(t, 1, r.Len())

	clock.Advance(time.Hour)
	revoked, _ = r.Revoked(ctx, "unknown")
	assert.False(t, revoked)
	assert.Equal(t, 0, r.Len())
}
