package dto

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenPair is what the auth service hands back to the handler. Only the
// access token goes in the body; the refresh token travels as a cookie.
type TokenPair struct {
	UserID       uint
	AccessToken  string
	RefreshToken string
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MeResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Role         string `json:"role"`
	MobileNumber string `json:"mobileNumber"`
}
