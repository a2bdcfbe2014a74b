package service

import (
	"context"

	"club-auth-service/internal/model"
	"club-auth-service/internal/repository"
)

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByGoogleSub(ctx context.Context, sub string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	LinkGoogleSub(ctx context.Context, userID string, sub string) error
}

// TokenStore is the refresh token store contract. The issuer writes only
// through Upsert, the rotator only through Rotate/Revoke.
type TokenStore interface {
	Upsert(ctx context.Context, t model.RefreshToken) error
	Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	Rotate(ctx context.Context, oldTokenHash string, replacement model.RefreshToken) error
	Purge(ctx context.Context, p repository.TokenPurge) (int64, error)
}
