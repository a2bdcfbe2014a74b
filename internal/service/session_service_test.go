package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-auth-service/internal/model"
	"club-auth-service/internal/repository"
)

type sessionFixture struct {
	users    *repository.MemoryUserRepository
	tokens   *repository.MemoryTokenRepository
	issuer   *TokenIssuer
	sessions *SessionService
	user     model.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	tokens := repository.NewMemoryTokenRepository()
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour, tokens)
	sessions := NewSessionService(tokens, users, issuer)

	user := testUser()
	require.NoError(t, users.Create(context.Background(), user))

	return &sessionFixture{users: users, tokens: tokens, issuer: issuer, sessions: sessions, user: user}
}

func (f *sessionFixture) login(t *testing.T, deviceID string) model.TokenPair {
	t.Helper()

	pair, err := f.issuer.Issue(context.Background(), f.user, deviceID)
	require.NoError(t, err)
	return pair
}

func TestSessionService_Refresh(t *testing.T) {
	t.Run("rotation returns a new pair and kills the old token", func(t *testing.T) {
		f := newSessionFixture(t)
		pair := f.login(t, "device-1")

		rotated, err := f.sessions.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// Exactly one active token for the device after rotation.
		assert.Equal(t, 1, f.tokens.ActiveCount(f.user.ID, "device-1"))

		// Replaying the rotated-out token is a generic invalid session.
		_, err = f.sessions.Refresh(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrInvalidSession)
	})

	t.Run("rotated replacement keeps the device binding", func(t *testing.T) {
		f := newSessionFixture(t)
		pair := f.login(t, "device-1")

		rotated, err := f.sessions.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)

		stored, err := f.tokens.Lookup(context.Background(), HashToken(rotated.RefreshToken))
		require.NoError(t, err)
		assert.Equal(t, "device-1", stored.DeviceID)
	})

	t.Run("unknown revoked and expired tokens are one outcome", func(t *testing.T) {
		f := newSessionFixture(t)

		// Unknown.
		_, errUnknown := f.sessions.Refresh(context.Background(), "never-issued")

		// Revoked.
		revoked := f.login(t, "device-r")
		require.NoError(t, f.sessions.Logout(context.Background(), revoked.RefreshToken))
		_, errRevoked := f.sessions.Refresh(context.Background(), revoked.RefreshToken)

		// Expired.
		expiredIssuer := NewTokenIssuer("test-secret", 15*time.Minute, -time.Hour, f.tokens)
		expired, err := expiredIssuer.Issue(context.Background(), f.user, "device-e")
		require.NoError(t, err)
		_, errExpired := f.sessions.Refresh(context.Background(), expired.RefreshToken)

		require.ErrorIs(t, errUnknown, model.ErrInvalidSession)
		require.ErrorIs(t, errRevoked, model.ErrInvalidSession)
		require.ErrorIs(t, errExpired, model.ErrInvalidSession)
		assert.Equal(t, errUnknown.Error(), errRevoked.Error())
		assert.Equal(t, errUnknown.Error(), errExpired.Error())
	})

	t.Run("empty token rejected", func(t *testing.T) {
		f := newSessionFixture(t)

		_, err := f.sessions.Refresh(context.Background(), "  ")
		require.ErrorIs(t, err, model.ErrInvalidSession)
	})

	t.Run("deleted owner invalidates the session", func(t *testing.T) {
		f := newSessionFixture(t)
		pair := f.login(t, "device-1")

		require.NoError(t, f.users.Delete(context.Background(), f.user.ID))

		_, err := f.sessions.Refresh(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrInvalidSession)
	})
}

func TestSessionService_Logout(t *testing.T) {
	f := newSessionFixture(t)
	pair := f.login(t, "device-1")

	require.NoError(t, f.sessions.Logout(context.Background(), pair.RefreshToken))
	assert.Equal(t, 0, f.tokens.ActiveCount(f.user.ID, "device-1"))

	// Idempotent: second revoke and unknown token are no-ops.
	require.NoError(t, f.sessions.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.sessions.Logout(context.Background(), "never-issued"))
	require.NoError(t, f.sessions.Logout(context.Background(), ""))
}

func TestSessionService_PurgeExpired(t *testing.T) {
	f := newSessionFixture(t)

	// One long-expired token, one live one.
	expiredIssuer := NewTokenIssuer("test-secret", 15*time.Minute, -48*time.Hour, f.tokens)
	_, err := expiredIssuer.Issue(context.Background(), f.user, "device-old")
	require.NoError(t, err)
	live := f.login(t, "device-live")

	purged, err := f.sessions.PurgeExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = f.tokens.Lookup(context.Background(), HashToken(live.RefreshToken))
	assert.NoError(t, err)
}
