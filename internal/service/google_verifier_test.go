package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-auth-service/internal/model"
)

func newTokenInfoStub(t *testing.T, status int, body map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func validTokenInfo() map[string]string {
	return map[string]string{
		"sub":            "google-sub-1",
		"aud":            "client-id-1",
		"email":          "g@example.com",
		"email_verified": "true",
		"name":           "Gabriela Soto",
		"exp":            fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()),
	}
}

func TestTokenInfoVerifier_Verify(t *testing.T) {
	t.Run("accepts a valid token", func(t *testing.T) {
		server := newTokenInfoStub(t, http.StatusOK, validTokenInfo())
		v := NewTokenInfoVerifierForEndpoint("client-id-1", server.URL, server.Client())

		identity, err := v.Verify(context.Background(), "some-id-token")
		require.NoError(t, err)
		assert.Equal(t, "google-sub-1", identity.Sub)
		assert.Equal(t, "g@example.com", identity.Email)
		assert.True(t, identity.EmailVerified)
	})

	t.Run("rejects audience mismatch", func(t *testing.T) {
		info := validTokenInfo()
		info["aud"] = "someone-else"
		server := newTokenInfoStub(t, http.StatusOK, info)
		v := NewTokenInfoVerifierForEndpoint("client-id-1", server.URL, server.Client())

		_, err := v.Verify(context.Background(), "some-id-token")
		require.ErrorIs(t, err, model.ErrInvalidProviderToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		info := validTokenInfo()
		info["exp"] = fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix())
		server := newTokenInfoStub(t, http.StatusOK, info)
		v := NewTokenInfoVerifierForEndpoint("client-id-1", server.URL, server.Client())

		_, err := v.Verify(context.Background(), "some-id-token")
		require.ErrorIs(t, err, model.ErrInvalidProviderToken)
	})

	t.Run("provider 4xx means invalid token", func(t *testing.T) {
		server := newTokenInfoStub(t, http.StatusBadRequest, map[string]string{"error": "invalid_token"})
		v := NewTokenInfoVerifierForEndpoint("client-id-1", server.URL, server.Client())

		_, err := v.Verify(context.Background(), "garbage")
		require.ErrorIs(t, err, model.ErrInvalidProviderToken)
	})

	t.Run("provider 5xx means unavailable", func(t *testing.T) {
		server := newTokenInfoStub(t, http.StatusInternalServerError, map[string]string{})
		v := NewTokenInfoVerifierForEndpoint("client-id-1", server.URL, server.Client())

		_, err := v.Verify(context.Background(), "some-id-token")
		require.ErrorIs(t, err, model.ErrProviderUnavailable)
	})

	t.Run("unreachable provider means unavailable", func(t *testing.T) {
		server := newTokenInfoStub(t, http.StatusOK, validTokenInfo())
		v := NewTokenInfoVerifierForEndpoint("client-id-1", server.URL, server.Client())
		server.Close()

		_, err := v.Verify(context.Background(), "some-id-token")
		require.ErrorIs(t, err, model.ErrProviderUnavailable)
	})

	t.Run("empty token rejected without a call", func(t *testing.T) {
		v := NewTokenInfoVerifierForEndpoint("client-id-1", "http://127.0.0.1:1", nil)

		_, err := v.Verify(context.Background(), "")
		require.ErrorIs(t, err, model.ErrInvalidProviderToken)
	})
}
