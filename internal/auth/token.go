package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and validates HMAC-signed JWTs whose subject is the user's email
type TokenManager struct {
	secret             []byte
	method             jwt.SigningMethod
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	rememberMeExpiry   time.Duration
	now                func() time.Time
}

// NewTokenManager creates a TokenManager for one of HS256, HS384 or HS512
func NewTokenManager(secret, algorithm string, accessExpiry, refreshExpiry, rememberMeExpiry time.Duration) (*TokenManager, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &TokenManager{
		secret:             []byte(secret),
		method:             method,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		rememberMeExpiry:   rememberMeExpiry,
		now:                time.Now,
	}, nil
}

// AccessTokenExpiry returns the lifetime of access tokens
func (tm *TokenManager) AccessTokenExpiry() time.Duration {
	return tm.accessTokenExpiry
}

// RefreshTokenExpiry returns the lifetime of refresh tokens issued without remember-me
func (tm *TokenManager) RefreshTokenExpiry() time.Duration {
	return tm.refreshTokenExpiry
}

// GenerateAccessToken creates a short-lived access token. Nothing is stored.
func (tm *TokenManager) GenerateAccessToken(subject string) (string, error) {
	return tm.sign(subject, models.TokenTypeAccess, tm.accessTokenExpiry)
}

// GenerateRefreshToken creates a long-lived refresh token. The caller persists it
// on the user row; it is only honored while it equals the stored value.
func (tm *TokenManager) GenerateRefreshToken(subject string, rememberMe bool) (string, error) {
	expiry := tm.refreshTokenExpiry
	if rememberMe {
		expiry = tm.rememberMeExpiry
	}
	return tm.sign(subject, models.TokenTypeRefresh, expiry)
}

func (tm *TokenManager) sign(subject, tokenType string, expiry time.Duration) (string, error) {
	now := tm.now()

	claims := &models.TokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.New().String(), // unique per token so rotation always yields a new value
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	tokenString, err := jwt.NewWithClaims(tm.method, claims).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims.
// A token past its expiry yields ErrTokenExpired even when its signature is also bad;
// every other failure yields ErrTokenInvalid.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || tm.isExpiredUnverified(tokenString) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}

	if !token.Valid || claims.Subject == "" || claims.Type == "" {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}

// isExpiredUnverified reads exp without checking the signature
func (tm *TokenManager) isExpiredUnverified(tokenString string) bool {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !tm.now().Before(claims.ExpiresAt.Time)
}
