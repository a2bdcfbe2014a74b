package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-auth-service/internal/model"
	"club-auth-service/internal/repository"
)

func testUser() model.User {
	return model.User{
		ID:              "11111111-1111-1111-1111-111111111111",
		FullName:        "Ana Torres",
		Email:           "ana@example.com",
		Role:            model.RolePersonaNatural,
		ProfileComplete: true,
	}
}

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	tokens := repository.NewMemoryTokenRepository()
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour, tokens)

	pair, err := issuer.Issue(context.Background(), testUser(), "device-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)
	assert.Equal(t, "device-1", pair.DeviceID)

	claims, err := issuer.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, model.RolePersonaNatural, claims.Role)
	assert.Equal(t, "device-1", claims.DeviceID)
	assert.Equal(t, "access", claims.Type)
	assert.NotEmpty(t, claims.TokenID)

	// Only the hash is stored; the raw value must not appear in the store.
	stored, err := tokens.Lookup(context.Background(), HashToken(pair.RefreshToken))
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, stored.TokenHash)
	assert.Equal(t, "device-1", stored.DeviceID)
	assert.True(t, stored.Active(time.Now().UTC()))
}

func TestTokenIssuer_IssueFailsWhenStoreFails(t *testing.T) {
	tokens := repository.NewMemoryTokenRepository()
	tokens.FailNextUpsert = errors.New("connection reset")
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour, tokens)

	pair, err := issuer.Issue(context.Background(), testUser(), "device-1")
	require.Error(t, err)
	assert.Empty(t, pair.AccessToken)
	assert.Empty(t, pair.RefreshToken)
	assert.Equal(t, 0, tokens.ActiveCount(testUser().ID, "device-1"))
}

func TestTokenIssuer_ValidateRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour, repository.NewMemoryTokenRepository())

	_, err := issuer.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenIssuer_ValidateRejectsWrongSecret(t *testing.T) {
	tokens := repository.NewMemoryTokenRepository()
	issuer := NewTokenIssuer("secret-a", 15*time.Minute, 24*time.Hour, tokens)
	other := NewTokenIssuer("secret-b", 15*time.Minute, 24*time.Hour, tokens)

	pair, err := issuer.Issue(context.Background(), testUser(), "device-1")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenIssuer_ValidateRejectsExpired(t *testing.T) {
	tokens := repository.NewMemoryTokenRepository()
	issuer := NewTokenIssuer("test-secret", -time.Minute, 24*time.Hour, tokens)

	pair, err := issuer.Issue(context.Background(), testUser(), "device-1")
	require.NoError(t, err)

	_, err = issuer.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}
