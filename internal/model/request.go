package model

// Request bodies keep the field names of the original mobile client.

type RegisterRequest struct {
	FullName string `json:"nombre_completo"`
	Email    string `json:"correo"`
	Password string `json:"contraseña"`
	Role     string `json:"rol"`
}

type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contraseña"`
	DeviceID string `json:"deviceId"`
}

type GoogleLoginRequest struct {
	GoogleToken string `json:"googleToken"`
	DeviceID    string `json:"deviceId"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}
