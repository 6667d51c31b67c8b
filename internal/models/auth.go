package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role the service issues tokens for.
const AdminRole = "ADMIN"

// LoginRequest holds the shared admin secret for authentication.
type LoginRequest struct {
	Secret    string `json:"secret" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued admin token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// SecretUpdateRequest rotates the admin secret.
type SecretUpdateRequest struct {
	CurrentSecret string `json:"current_secret" validate:"required"`
	NewSecret     string `json:"new_secret" validate:"required,min=8"`
	IP            string `json:"-"`
	UserAgent     string `json:"-"`
}

// JWTClaims represents the JWT payload for admin access tokens.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
