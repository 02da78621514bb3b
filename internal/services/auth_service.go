package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	pkgauth "github.com/fortifund/fortifund-api/pkg/auth"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
)

// AccountNotifier is told about new accounts awaiting activation
type AccountNotifier interface {
	NotifySignup(user *models.User)
}

// RequestMeta identifies the client behind an auth request for audit logging
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthResult is the outcome of a successful login or refresh
type AuthResult struct {
	Tokens models.TokenPair
	User   *models.User
}

// AuthService handles credential checks, token issuance and the account gates
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	notifier    AccountNotifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewAuthService(repo UserRepository, tm *auth.TokenManager, notifier AccountNotifier, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate verifies an email and password. An unknown email and a wrong password
// both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates a user, applies the status gate and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool, meta RequestMeta) (*AuthResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.logAttempt("login", email, nil, meta, err)
		return nil, err
	}

	if !user.IsActive() {
		s.logAttempt("login", email, user, meta, models.ErrAccountNotActive)
		return nil, models.ErrAccountNotActive
	}

	result, err := s.issueLoginTokens(ctx, user, rememberMe)
	if err != nil {
		return nil, err
	}

	s.logAttempt("login", email, user, meta, nil)
	return result, nil
}

// AdminLogin is Login restricted to admins. The role is checked before the status.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string, meta RequestMeta) (*AuthResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.logAttempt("admin_login", email, nil, meta, err)
		return nil, err
	}

	if user.Role != models.RoleAdmin {
		s.logAttempt("admin_login", email, user, meta, models.ErrNotAuthorizedAsAdmin)
		return nil, models.ErrNotAuthorizedAsAdmin
	}

	if !user.IsActive() {
		s.logAttempt("admin_login", email, user, meta, models.ErrAccountNotActive)
		return nil, models.ErrAccountNotActive
	}

	result, err := s.issueLoginTokens(ctx, user, false)
	if err != nil {
		return nil, err
	}

	s.logAttempt("admin_login", email, user, meta, nil)
	return result, nil
}

func (s *AuthService) issueLoginTokens(ctx context.Context, user *models.User, rememberMe bool) (*AuthResult, error) {
	pair, err := s.generatePair(user.Email, rememberMe)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RecordLogin(ctx, user.ID, pair.RefreshToken, s.now()); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.RefreshToken = &pair.RefreshToken
	return &AuthResult{Tokens: *pair, User: user}, nil
}

func (s *AuthService) generatePair(subject string, rememberMe bool) (*models.TokenPair, error) {
	accessToken, err := s.tm.GenerateAccessToken(subject)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(subject, rememberMe)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// CurrentUser resolves an access token to its user. Refresh tokens are rejected.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tm.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	if claims.Type != models.TokenTypeAccess {
		return nil, models.ErrTokenInvalid
	}

	user, err := s.repo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to load token subject", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// Refresh exchanges the user's current refresh token for a new pair. Only the most
// recently issued refresh token is honored; the new one replaces it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*AuthResult, error) {
	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil {
		s.logAttempt("token_refresh", "", nil, meta, err)
		return nil, err
	}

	if claims.Type != models.TokenTypeRefresh {
		s.logAttempt("token_refresh", claims.Subject, nil, meta, models.ErrTokenInvalid)
		return nil, models.ErrTokenInvalid
	}

	user, err := s.repo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to load refresh token subject", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		s.logAttempt("token_refresh", user.Email, user, meta, models.ErrTokenMismatch)
		return nil, models.ErrTokenMismatch
	}

	if !user.IsActive() {
		s.logAttempt("token_refresh", user.Email, user, meta, models.ErrAccountNotActive)
		return nil, models.ErrAccountNotActive
	}

	pair, err := s.generatePair(user.Email, s.isRememberMe(claims))
	if err != nil {
		return nil, err
	}

	// The stored token may have been rotated by a concurrent refresh since it was read
	if err := s.repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, models.ErrTokenMismatch) {
			s.logAttempt("token_refresh", user.Email, user, meta, models.ErrTokenMismatch)
			return nil, models.ErrTokenMismatch
		}
		s.logger.Error("failed to store refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.RefreshToken = &pair.RefreshToken
	s.logAttempt("token_refresh", user.Email, user, meta, nil)
	return &AuthResult{Tokens: *pair, User: user}, nil
}

// isRememberMe reports whether a refresh token was issued with the remember-me lifetime,
// so rotation keeps it
func (s *AuthService) isRememberMe(claims *models.TokenClaims) bool {
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Sub(claims.IssuedAt.Time) > s.tm.RefreshTokenExpiry()
}

// Logout revokes the user's refresh token. Access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, user *models.User, meta RequestMeta) error {
	if err := s.repo.SetRefreshToken(ctx, user.ID, nil); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUserNotFound
		}
		s.logger.Error("failed to clear refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	user.RefreshToken = nil
	s.logAttempt("logout", user.Email, user, meta, nil)
	return nil
}

// Signup creates a pending broker account and notifies the admin mailbox
func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = normalizeEmail(email)

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         models.RoleBroker,
		Status:       models.StatusPending,
		CreatedBy:    email,
		UpdatedBy:    email,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(user.Email)))

	if s.notifier != nil {
		s.notifier.NotifySignup(user)
	}

	return user, nil
}

func (s *AuthService) logAttempt(eventType, email string, user *models.User, meta RequestMeta, err error) {
	if s.auditLogger == nil {
		return
	}

	event := pkglogger.AuditEvent{
		EventType: eventType,
		Email:     normalizeEmail(email),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   err == nil,
	}
	if user != nil {
		event.UserID = user.ID
	}
	if err != nil {
		event.FailureReason = failureReason(err)
	}

	s.auditLogger.LogAuthAttempt(event)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, models.ErrAccountNotActive):
		return "account_not_active"
	case errors.Is(err, models.ErrNotAuthorizedAsAdmin):
		return "not_admin"
	case errors.Is(err, models.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, models.ErrTokenMismatch):
		return "token_superseded"
	case errors.Is(err, models.ErrTokenInvalid):
		return "token_invalid"
	default:
		return "internal_error"
	}
}
