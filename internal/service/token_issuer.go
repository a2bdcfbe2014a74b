package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"club-auth-service/internal/model"
	"club-auth-service/pkg/apierror"
)

const refreshTokenBytes = 32

// TokenIssuer mints access/refresh token pairs for verified users. A pair
// is only considered issued once the refresh token row is durably stored;
// Issue never returns tokens after a failed upsert.
type TokenIssuer struct {
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	tokens     TokenStore
}

func NewTokenIssuer(jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, tokens TokenStore) *TokenIssuer {
	return &TokenIssuer{
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		tokens:     tokens,
	}
}

func (i *TokenIssuer) Issue(ctx context.Context, user model.User, deviceID string) (model.TokenPair, error) {
	pair, row, err := i.Mint(user, deviceID)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := i.tokens.Upsert(ctx, row); err != nil {
		return model.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return pair, nil
}

// Mint builds a token pair and its store row without persisting anything.
// The rotator uses it so the replacement row can ride the rotation
// transaction instead of a separate upsert.
func (i *TokenIssuer) Mint(user model.User, deviceID string) (model.TokenPair, model.RefreshToken, error) {
	now := time.Now().UTC()

	accessToken, err := i.signAccessToken(user, deviceID, now)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("sign access token: %w", err)
	}

	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshToken := base64.RawURLEncoding.EncodeToString(raw)

	row := model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		DeviceID:  deviceID,
		TokenHash: HashToken(refreshToken),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.refreshTTL),
	}

	pair := model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
		DeviceID:     deviceID,
	}

	return pair, row, nil
}

func (i *TokenIssuer) signAccessToken(user model.User, deviceID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"did":   deviceID,
		"typ":   "access",
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(i.accessTTL).Unix(),
	})
	return token.SignedString(i.jwtSecret)
}

// ValidateAccessToken verifies signature and expiry statelessly; no store
// lookup is involved.
func (i *TokenIssuer) ValidateAccessToken(tokenString string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", "", http.StatusUnauthorized)
		}
		return i.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.New("UNAUTHORIZED", "invalid token", "", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.New("UNAUTHORIZED", "invalid token claims", "", http.StatusUnauthorized)
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != "access" {
		return nil, apierror.New("UNAUTHORIZED", "invalid token type", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.DeviceID, _ = claimsMap["did"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.New("UNAUTHORIZED", "invalid token subject", "", http.StatusUnauthorized)
	}

	return claims, nil
}

// HashToken is the only form in which refresh tokens touch storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
