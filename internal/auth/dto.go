package auth

// LoginDTO is built from the form-encoded login request.
type LoginDTO struct {
	Email      string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	DeviceInfo string `json:"-"`
	IPAddress  string `json:"-"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	DeviceInfo   string `json:"-"`
	IPAddress    string `json:"-"`
}

// LogoutDTO optionally names the refresh token to revoke.
type LogoutDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type AllowedRolesResponse struct {
	Roles []Role `json:"roles"`
}
