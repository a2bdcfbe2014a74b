package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"club-auth-service/internal/metrics"
	"club-auth-service/internal/model"
	"club-auth-service/internal/repository"
)

// SessionService rotates and revokes refresh tokens. A presented token
// either validates and rotates, or is rejected; the not-found, revoked
// and expired causes all surface to the client as the same generic
// invalid-session outcome and are only told apart in the log.
type SessionService struct {
	tokens TokenStore
	users  UserStore
	issuer *TokenIssuer
}

func NewSessionService(tokens TokenStore, users UserStore, issuer *TokenIssuer) *SessionService {
	return &SessionService{tokens: tokens, users: users, issuer: issuer}
}

func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return model.TokenPair{}, model.ErrInvalidSession
	}

	oldHash := HashToken(refreshToken)

	presented, err := s.tokens.Lookup(ctx, oldHash)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			slog.Warn("refresh rejected", "reason", "token not found")
			metrics.RefreshRotations.WithLabelValues(metrics.OutcomeRejected).Inc()
			return model.TokenPair{}, model.ErrInvalidSession
		}
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, err
	}

	now := time.Now().UTC()
	if presented.Revoked {
		// Reuse of a rotated token; worth a louder log line than the
		// ordinary rejects.
		slog.Warn("refresh rejected", "reason", "token revoked", "user_id", presented.UserID, "device_id", presented.DeviceID)
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return model.TokenPair{}, model.ErrInvalidSession
	}
	if presented.Expired(now) {
		slog.Warn("refresh rejected", "reason", "token expired", "user_id", presented.UserID)
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return model.TokenPair{}, model.ErrInvalidSession
	}

	user, err := s.users.FindByID(ctx, presented.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			slog.Warn("refresh rejected", "reason", "owning user gone", "user_id", presented.UserID)
			metrics.RefreshRotations.WithLabelValues(metrics.OutcomeRejected).Inc()
			return model.TokenPair{}, model.ErrInvalidSession
		}
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, err
	}

	pair, replacement, err := s.issuer.Mint(user, presented.DeviceID)
	if err != nil {
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, err
	}

	// Revocation of the old row and insertion of the new one commit
	// together; a failure here rolls the rotation back entirely and is
	// surfaced as a hard error for the caller to retry login.
	if err := s.tokens.Rotate(ctx, oldHash, replacement); err != nil {
		switch {
		case errors.Is(err, model.ErrTokenNotFound),
			errors.Is(err, model.ErrTokenRevoked),
			errors.Is(err, model.ErrTokenExpired):
			// Lost a race with a concurrent rotation of the same token.
			slog.Warn("refresh rejected", "reason", "concurrent rotation", "user_id", presented.UserID)
			metrics.RefreshRotations.WithLabelValues(metrics.OutcomeRejected).Inc()
			return model.TokenPair{}, model.ErrInvalidSession
		}
		metrics.RefreshRotations.WithLabelValues(metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, err
	}

	metrics.RefreshRotations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.Info("session rotated", "user_id", user.ID, "device_id", presented.DeviceID)
	return pair, nil
}

// Logout revokes the presented refresh token. Idempotent: an unknown or
// already-revoked token is not an error.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, HashToken(refreshToken))
}

// PurgeExpired drops rows whose expiry is older than the retention
// window. Cleanup tooling only; never on the request path.
func (s *SessionService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	purged, err := s.tokens.Purge(ctx, repository.TokenPurge{ExpiredBefore: cutoff})
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		metrics.TokensPurged.Add(float64(purged))
		slog.Info("purged expired refresh tokens", "count", purged)
	}
	return purged, nil
}

// StartPurgeTicker runs PurgeExpired on an interval until ctx is
// cancelled.
func (s *SessionService) StartPurgeTicker(ctx context.Context, interval time.Duration, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx, retention); err != nil {
				slog.Error("refresh token purge failed", "error", err)
			}
		}
	}
}
