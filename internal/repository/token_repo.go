package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"club-auth-service/internal/model"
)

const tokenColumns = `id, user_id, device_id, token_hash, issued_at, expires_at, revoked, revoked_at`

// TokenRepository owns the refresh_tokens table. All writes from the
// issuer and the rotator go through Upsert/Revoke/Rotate; nothing else
// touches the rows.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Upsert inserts the active token row for (user, device), replacing a
// still-active row in place. The conflict target is the partial unique
// index on (user_id, device_id) WHERE NOT revoked, so two concurrent
// logins for the same device resolve to a single live row without any
// application-level locking.
func (r *TokenRepository) Upsert(ctx context.Context, t model.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, device_id, token_hash, issued_at, expires_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		 ON CONFLICT (user_id, device_id) WHERE NOT revoked
		 DO UPDATE SET
			id = EXCLUDED.id,
			token_hash = EXCLUDED.token_hash,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at`,
		t.ID, t.UserID, t.DeviceID, t.TokenHash, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.DeviceID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.Revoked, &t.RevokedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("lookup refresh token: %w", err)
	}
	return t, nil
}

// Revoke marks a row revoked. Revoking an unknown or already-revoked
// token is a no-op, not an error.
func (r *TokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2
		 WHERE token_hash = $1 AND NOT revoked`,
		tokenHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Rotate revokes the presented token and inserts its replacement as one
// transaction. The presented row is re-validated under FOR UPDATE so a
// concurrent rotation of the same token loses cleanly instead of minting
// a second pair.
func (r *TokenRepository) Rotate(ctx context.Context, oldTokenHash string, replacement model.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var old model.RefreshToken
	err = tx.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`, oldTokenHash).
		Scan(&old.ID, &old.UserID, &old.DeviceID, &old.TokenHash, &old.IssuedAt, &old.ExpiresAt, &old.Revoked, &old.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("lock presented token: %w", err)
	}

	if old.Revoked {
		return model.ErrTokenRevoked
	}
	if old.Expired(time.Now().UTC()) {
		return model.ErrTokenExpired
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`,
		old.ID, now); err != nil {
		return fmt.Errorf("revoke rotated token: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, device_id, token_hash, issued_at, expires_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)`,
		replacement.ID, replacement.UserID, replacement.DeviceID,
		replacement.TokenHash, replacement.IssuedAt, replacement.ExpiresAt); err != nil {
		return fmt.Errorf("insert replacement token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	return nil
}

// TokenPurge selects rows for administrative bulk deletion. Zero values
// mean "no filter on this axis"; an entirely zero predicate matches
// nothing rather than everything.
type TokenPurge struct {
	UserID        string
	ExpiredBefore time.Time
	RevokedOnly   bool
}

func (r *TokenRepository) Purge(ctx context.Context, p TokenPurge) (int64, error) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 2)

	if p.UserID != "" {
		args = append(args, p.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !p.ExpiredBefore.IsZero() {
		args = append(args, p.ExpiredBefore)
		clauses = append(clauses, fmt.Sprintf("expires_at <= $%d", len(args)))
	}
	if p.RevokedOnly {
		clauses = append(clauses, "revoked")
	}

	if len(clauses) == 0 {
		return 0, nil
	}

	query := "DELETE FROM refresh_tokens WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		query += " AND " + c
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
