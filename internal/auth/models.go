package auth

import "time"

type Device struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type TokenRequest struct {
	DeviceID string `json:"device_id"`
	Secret   string `json:"secret"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
