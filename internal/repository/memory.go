package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"club-auth-service/internal/model"
)

// MemoryUserRepository and MemoryTokenRepository mirror the semantics of
// their PostgreSQL counterparts for tests that should not need a running
// database. They implement the same store interfaces the services consume.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]model.User{}}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if strings.ToLower(u.Email) == key {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) FindByGoogleSub(_ context.Context, sub string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.GoogleSub != "" && u.GoogleSub == sub {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	for _, existing := range r.users {
		if strings.ToLower(existing.Email) == key {
			return model.ErrEmailTaken
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) LinkGoogleSub(_ context.Context, userID string, sub string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.GoogleSub = sub
	u.UpdatedAt = time.Now().UTC()
	r.users[userID] = u
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type MemoryTokenRepository struct {
	mu     sync.Mutex
	byHash map[string]model.RefreshToken

	// FailNextUpsert makes the next Upsert report a persistence failure,
	// for exercising the issuance-is-atomic contract.
	FailNextUpsert error
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{byHash: map[string]model.RefreshToken{}}
}

func (r *MemoryTokenRepository) Upsert(_ context.Context, t model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNextUpsert != nil {
		err := r.FailNextUpsert
		r.FailNextUpsert = nil
		return err
	}

	// Replace any still-active row for the same (user, device), matching
	// the partial-unique-index conflict resolution in Postgres.
	for hash, existing := range r.byHash {
		if existing.UserID == t.UserID && existing.DeviceID == t.DeviceID && !existing.Revoked {
			delete(r.byHash, hash)
		}
	}
	r.byHash[t.TokenHash] = t
	return nil
}

func (r *MemoryTokenRepository) Lookup(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenHash]
	if !ok {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	return t, nil
}

func (r *MemoryTokenRepository) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenHash]
	if !ok || t.Revoked {
		return nil
	}
	now := time.Now().UTC()
	t.Revoked = true
	t.RevokedAt = &now
	r.byHash[tokenHash] = t
	return nil
}

func (r *MemoryTokenRepository) Rotate(_ context.Context, oldTokenHash string, replacement model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byHash[oldTokenHash]
	if !ok {
		return model.ErrTokenNotFound
	}
	if old.Revoked {
		return model.ErrTokenRevoked
	}
	if old.Expired(time.Now().UTC()) {
		return model.ErrTokenExpired
	}

	now := time.Now().UTC()
	old.Revoked = true
	old.RevokedAt = &now
	r.byHash[oldTokenHash] = old
	r.byHash[replacement.TokenHash] = replacement
	return nil
}

func (r *MemoryTokenRepository) Purge(_ context.Context, p TokenPurge) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.UserID == "" && p.ExpiredBefore.IsZero() && !p.RevokedOnly {
		return 0, nil
	}

	var purged int64
	for hash, t := range r.byHash {
		if p.UserID != "" && t.UserID != p.UserID {
			continue
		}
		if !p.ExpiredBefore.IsZero() && t.ExpiresAt.After(p.ExpiredBefore) {
			continue
		}
		if p.RevokedOnly && !t.Revoked {
			continue
		}
		delete(r.byHash, hash)
		purged++
	}
	return purged, nil
}

// ActiveCount reports live rows for one (user, device) pair; test-only.
func (r *MemoryTokenRepository) ActiveCount(userID string, deviceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, t := range r.byHash {
		if t.UserID == userID && t.DeviceID == deviceID && t.Active(now) {
			count++
		}
	}
	return count
}
