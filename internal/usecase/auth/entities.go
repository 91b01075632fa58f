package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	Phone        string
	ReferralCode string
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
}

// Claims carry the public user id; the numeric id never leaves the server.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
