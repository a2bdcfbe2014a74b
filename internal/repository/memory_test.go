package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-auth-service/internal/model"
)

func newToken(userID string, deviceID string, hash string, expiresAt time.Time) model.RefreshToken {
	return model.RefreshToken{
		ID:        "id-" + hash,
		UserID:    userID,
		DeviceID:  deviceID,
		TokenHash: hash,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
}

func TestMemoryTokenRepository_UpsertReplacesActiveRow(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	expiry := time.Now().UTC().Add(time.Hour)

	require.NoError(t, repo.Upsert(ctx, newToken("u1", "d1", "hash-1", expiry)))
	require.NoError(t, repo.Upsert(ctx, newToken("u1", "d1", "hash-2", expiry)))

	assert.Equal(t, 1, repo.ActiveCount("u1", "d1"))
	_, err := repo.Lookup(ctx, "hash-1")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
	_, err = repo.Lookup(ctx, "hash-2")
	assert.NoError(t, err)
}

func TestMemoryTokenRepository_RotateKeepsRevokedHistory(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	expiry := time.Now().UTC().Add(time.Hour)

	require.NoError(t, repo.Upsert(ctx, newToken("u1", "d1", "hash-1", expiry)))
	require.NoError(t, repo.Rotate(ctx, "hash-1", newToken("u1", "d1", "hash-2", expiry)))

	old, err := repo.Lookup(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	assert.Equal(t, 1, repo.ActiveCount("u1", "d1"))

	// Rotating the same token again fails with the revoked cause.
	err = repo.Rotate(ctx, "hash-1", newToken("u1", "d1", "hash-3", expiry))
	assert.ErrorIs(t, err, model.ErrTokenRevoked)
}

func TestMemoryTokenRepository_RevokeIdempotent(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newToken("u1", "d1", "hash-1", time.Now().UTC().Add(time.Hour))))

	require.NoError(t, repo.Revoke(ctx, "hash-1"))
	require.NoError(t, repo.Revoke(ctx, "hash-1"))
	require.NoError(t, repo.Revoke(ctx, "never-stored"))
}

func TestMemoryTokenRepository_Purge(t *testing.T) {
	repo := NewMemoryTokenRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, newToken("u1", "d1", "hash-old", now.Add(-48*time.Hour))))
	require.NoError(t, repo.Upsert(ctx, newToken("u1", "d2", "hash-live", now.Add(time.Hour))))
	require.NoError(t, repo.Upsert(ctx, newToken("u2", "d1", "hash-other", now.Add(time.Hour))))

	t.Run("zero predicate matches nothing", func(t *testing.T) {
		purged, err := repo.Purge(ctx, TokenPurge{})
		require.NoError(t, err)
		assert.Zero(t, purged)
	})

	t.Run("expired before cutoff", func(t *testing.T) {
		purged, err := repo.Purge(ctx, TokenPurge{ExpiredBefore: now.Add(-24 * time.Hour)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
	})

	t.Run("by user", func(t *testing.T) {
		purged, err := repo.Purge(ctx, TokenPurge{UserID: "u2"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
		_, err = repo.Lookup(ctx, "hash-live")
		assert.NoError(t, err)
	})
}
