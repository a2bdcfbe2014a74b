package model

import "time"

// RefreshToken is one row of the refresh token store. Only the SHA-256
// hash of the opaque token value is persisted; the raw value leaves the
// process exactly once, in the issuance response.
type RefreshToken struct {
	ID        string
	UserID    string
	DeviceID  string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && !t.Expired(now)
}

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	DeviceID     string `json:"deviceId"`
}
