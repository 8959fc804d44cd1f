package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

func TestMemoryCacheRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryCacheRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "references:all", map[string]int{"groups": 3}, time.Minute))

	var got map[string]int
	require.NoError(t, repo.Get(ctx, "references:all", &got))
	assert.Equal(t, 3, got["groups"])
}

func TestMemoryCacheRepositoryExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	repo := NewMemoryCacheRepository()
	repo.clock = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", "v", time.Minute))
	now = now.Add(2 * time.Minute)

	var got string
	assert.ErrorIs(t, repo.Get(ctx, "k", &got), appErrors.ErrCacheMiss)
}

func TestMemoryCacheRepositoryDeleteByPattern(t *testing.T) {
	repo := NewMemoryCacheRepository()
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "references:all", 1, 0))
	require.NoError(t, repo.Set(ctx, "references:groups", 2, 0))
	require.NoError(t, repo.Set(ctx, "other", 3, 0))

	require.NoError(t, repo.DeleteByPattern(ctx, "references:*"))

	var v int
	assert.ErrorIs(t, repo.Get(ctx, "references:all", &v), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Get(ctx, "other", &v))
	assert.Equal(t, 3, v)
}
