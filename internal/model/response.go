package model

type LoginResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"`
	DeviceID     string     `json:"deviceId"`
	User         PublicUser `json:"user"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RegisterResponse struct {
	User PublicUser `json:"user"`
}

type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}

// ErrorResponse is the only error body clients ever see. The message is
// generic; cause detail stays in the server log.
type ErrorResponse struct {
	Error string `json:"error"`
}
