package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"club-auth-service/internal/model"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity is the subset of the provider's token claims the service
// uses.
type GoogleIdentity struct {
	Sub           string
	Email         string
	Name          string
	EmailVerified bool
}

// GoogleVerifier confirms an ID token with the external identity
// provider. A rejected token and an unreachable provider are distinct
// outcomes; neither is a credentials error.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

// TokenInfoVerifier validates ID tokens against Google's tokeninfo
// endpoint, which performs the signature check on the provider side.
type TokenInfoVerifier struct {
	clientID string
	endpoint string
	client   *http.Client
}

func NewTokenInfoVerifier(clientID string, timeout time.Duration) *TokenInfoVerifier {
	return &TokenInfoVerifier{
		clientID: clientID,
		endpoint: defaultTokenInfoURL,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewTokenInfoVerifierForEndpoint points the verifier at a non-default
// endpoint; tests use it with a local stub server.
func NewTokenInfoVerifierForEndpoint(clientID string, endpoint string, client *http.Client) *TokenInfoVerifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &TokenInfoVerifier{clientID: clientID, endpoint: endpoint, client: client}
}

type tokenInfoResponse struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Exp           string `json:"exp"`
}

func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	if idToken == "" {
		return GoogleIdentity{}, model.ErrInvalidProviderToken
	}

	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %w", model.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	// The endpoint answers 4xx for any token it does not accept.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return GoogleIdentity{}, model.ErrInvalidProviderToken
	}
	if resp.StatusCode != http.StatusOK {
		return GoogleIdentity{}, fmt.Errorf("%w: tokeninfo status %d", model.ErrProviderUnavailable, resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: decode tokeninfo response: %w", model.ErrProviderUnavailable, err)
	}

	if v.clientID != "" && info.Aud != v.clientID {
		return GoogleIdentity{}, model.ErrInvalidProviderToken
	}

	if exp, err := strconv.ParseInt(info.Exp, 10, 64); err != nil || time.Now().Unix() >= exp {
		return GoogleIdentity{}, model.ErrInvalidProviderToken
	}

	if info.Sub == "" || info.Email == "" {
		return GoogleIdentity{}, model.ErrInvalidProviderToken
	}

	return GoogleIdentity{
		Sub:           info.Sub,
		Email:         info.Email,
		Name:          info.Name,
		EmailVerified: info.EmailVerified == "true",
	}, nil
}
