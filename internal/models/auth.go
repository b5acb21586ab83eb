package models

// LoginRequest represents the admin login body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful admin login
type LoginResponse struct {
	Msg   string `json:"msg"`
	Token string `json:"token"`
}

// MessageResponse is the short `{msg}` body used by the form endpoints.
type MessageResponse struct {
	Msg string `json:"msg"`
}
