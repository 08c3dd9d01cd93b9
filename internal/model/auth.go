package model

// LoginRequest is the payload for email/password sign-in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries the ID token the browser obtained from Google
// sign-in.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}
