package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/llm-phishing-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEntry(hash string, ttl time.Duration) *core.CacheEntry {
	return &core.CacheEntry{
		ContentHash:  hash,
		RiskScore:    0.42,
		Confidence:   0.9,
		ModelVersion: "gpt-4",
		LastSeen:     time.Now(),
		ExpiresAt:    time.Now().Add(ttl),
	}
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	entry := newTestEntry("abc123", time.Hour)
	require.NoError(t, c.Set(ctx, entry))

	got, err := c.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 0.42, got.RiskScore)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, "gpt-4", got.ModelVersion)
}

func TestMemoryCache_GetMissing(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_GetExpired(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, newTestEntry("old", -time.Minute)))

	_, err := c.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, newTestEntry("gone", time.Hour)))
	require.NoError(t, c.Delete(ctx, "gone"))

	_, err := c.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_CleanupRemovesExpiredOnly(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, newTestEntry("fresh", time.Hour)))
	require.NoError(t, c.Set(ctx, newTestEntry("stale", -time.Minute)))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
}
