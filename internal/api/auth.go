package api

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	RiskProfile string `json:"riskProfile"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /refresh and POST /logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RiskProfileRequest is the body of PUT /me/risk-profile.
type RiskProfileRequest struct {
	RiskProfile string `json:"riskProfile" binding:"required"`
}

// UserResponse is the public view of a user. The password hash is never included.
type UserResponse struct {
	ID          uint    `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	RiskProfile string  `json:"riskProfile"`
	Balance     float64 `json:"balance"`
}

// TokenResponse is the body returned by /login and /refresh.
// ExpiresIn is the access token lifetime in seconds.
type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}
