//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"club-auth-service/internal/config"
	"club-auth-service/internal/handler"
	"club-auth-service/internal/middleware"
	"club-auth-service/internal/repository"
	"club-auth-service/internal/router"
	"club-auth-service/internal/service"
)

type testEnv struct {
	server *httptest.Server
	users  *repository.MemoryUserRepository
	tokens *repository.MemoryTokenRepository
}

// newTestEnv wires the full router over in-memory repositories and a
// stubbed provider tokeninfo endpoint.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	tokens := repository.NewMemoryTokenRepository()

	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good-google-token" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":            "google-sub-42",
			"aud":            "test-client-id",
			"email":          "g@example.com",
			"email_verified": "true",
			"name":           "Gabriela Soto",
			"exp":            fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()),
		})
	}))
	t.Cleanup(google.Close)

	issuer := service.NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour, tokens)
	verifier := service.NewTokenInfoVerifierForEndpoint("test-client-id", google.URL, google.Client())
	authService := service.NewAuthService(users, issuer, verifier, 10)
	sessionService := service.NewSessionService(tokens, users, issuer)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   10 * time.Second,
		JWTSecret:        "test-secret",
		JWTAccessTTL:     15 * time.Minute,
		RefreshTTL:       24 * time.Hour,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(issuer), router.Handlers{
		Auth:   handler.NewAuthHandler(authService, sessionService),
		User:   handler.NewUserHandler(authService),
		Health: handler.NewHealthHandler(nil),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return &testEnv{server: server, users: users, tokens: tokens}
}

func (e *testEnv) postJSON(t *testing.T, path string, payload any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func (e *testEnv) getWithToken(t *testing.T, path string, accessToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) register(t *testing.T, email string, password string) {
	t.Helper()

	resp, _ := e.postJSON(t, "/api/usuarios/register", map[string]string{
		"nombre_completo": "Ana Torres",
		"correo":          email,
		"contraseña":      password,
		"rol":             "persona_natural",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) login(t *testing.T, email string, password string) (string, string) {
	t.Helper()

	resp, body := e.postJSON(t, "/api/usuarios/login", map[string]string{
		"correo":     email,
		"contraseña": password,
		"deviceId":   "device-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var accessToken, refreshToken string
	require.NoError(t, json.Unmarshal(body["accessToken"], &accessToken))
	require.NoError(t, json.Unmarshal(body["refreshToken"], &refreshToken))
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	return accessToken, refreshToken
}
