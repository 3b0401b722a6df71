package domain

// ============================================================
// Auth: Request / Response types
// ============================================================

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// MeResponse is returned by GET /api/auth/me.
type MeResponse struct {
	User *User `json:"user"`
}
