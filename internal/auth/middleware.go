package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fortifund/fortifund-api/internal/models"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing the authenticated user in context
	UserContextKey contextKey = "user"
)

// CurrentUserResolver turns a bearer token into the user it belongs to
type CurrentUserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware resolves the bearer token to a user and injects it into context
func AuthMiddleware(resolver CurrentUserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			user, err := resolver.CurrentUser(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, models.ErrTokenExpired):
					pkghttp.WriteUnauthorized(w, "Token has expired")
				case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrUserNotFound):
					pkghttp.WriteUnauthorized(w, "Could not validate credentials")
				default:
					pkghttp.WriteInternalError(w, "Failed to authenticate request")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the current user's role is one of roles.
// Must be mounted after AuthMiddleware.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r)
			if user == nil {
				pkghttp.WriteUnauthorized(w, "Not authenticated")
				return
			}

			if !allowed[user.Role] {
				pkghttp.WriteForbidden(w, "The user doesn't have enough privileges")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the user injected by AuthMiddleware, or nil
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
