package models

// LoginRequest represents a login request sent to the remote API.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the remote API's login response.
type LoginResponse struct {
	Token string `json:"token"`
}
