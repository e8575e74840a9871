package repository

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService defines the interface for identity token operations.
type TokenService interface {
	GenerateToken(ctx context.Context, userID, username string) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the identity asserted by a token: subject id, username,
// and the registered issued-at/expires-at window.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
