package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims carries the user email as the JWT subject
type TokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is an access token plus the refresh token that can rotate it
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
