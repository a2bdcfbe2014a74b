package model

import "time"

const (
	RolePersonaNatural = "persona_natural"
	RoleEntrenador     = "entrenador"
	RoleAdmin          = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RolePersonaNatural, RoleEntrenador, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID              string    `json:"id"`
	FullName        string    `json:"nombre_completo"`
	Email           string    `json:"correo"`
	PasswordHash    string    `json:"-"`
	GoogleSub       string    `json:"-"`
	Role            string    `json:"rol"`
	ProfileComplete bool      `json:"perfil_completo"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PublicUser is the shape returned to clients; it never carries credentials.
type PublicUser struct {
	ID              string `json:"id"`
	FullName        string `json:"nombre_completo"`
	Email           string `json:"correo"`
	Role            string `json:"rol"`
	ProfileComplete bool   `json:"perfil_completo"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		FullName:        u.FullName,
		Email:           u.Email,
		Role:            u.Role,
		ProfileComplete: u.ProfileComplete,
	}
}

type AuthClaims struct {
	UserID   string `json:"sub"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	DeviceID string `json:"did"`
	Type     string `json:"typ"`
	TokenID  string `json:"jti"`
}
