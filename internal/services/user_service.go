package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fortifund/fortifund-api/internal/models"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	SetRefreshToken(ctx context.Context, id string, token *string) error
	RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) error
	RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserService handles profile and admin account management
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// UpdateProfile changes the caller's own display name
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, fullName string) (*models.User, error) {
	next := *user
	next.FullName = strings.TrimSpace(fullName)
	next.UpdatedBy = user.Email

	updated, err := s.repo.Update(ctx, user.ID, &next)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return updated, nil
}

// UpdateUser applies an admin change to another account. Status changes follow the
// account state machine; admins cannot change their own role or status.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.User, id string, patch models.UserUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	roleChange := patch.Role != nil && *patch.Role != user.Role
	statusChange := patch.Status != nil && *patch.Status != user.Status
	if user.ID == actor.ID && (roleChange || statusChange) {
		return nil, fmt.Errorf("%w: admins cannot change their own role or status", models.ErrForbidden)
	}

	next := *user
	metadata := map[string]string{}

	if patch.FullName != nil {
		next.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.Role != nil {
		if !models.IsValidRole(*patch.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", models.ErrBadRequest, *patch.Role)
		}
		if *patch.Role != user.Role {
			metadata["role"] = user.Role + "->" + *patch.Role
		}
		next.Role = *patch.Role
	}
	if patch.Status != nil {
		if !models.CanTransitionStatus(user.Status, *patch.Status) {
			return nil, models.ErrInvalidStatusTransition
		}
		if *patch.Status != user.Status {
			metadata["status"] = user.Status + "->" + *patch.Status
		}
		next.Status = *patch.Status
	}
	next.UpdatedBy = actor.Email

	updated, err := s.repo.Update(ctx, id, &next)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.auditLogger != nil {
		s.auditLogger.LogAccountAction("user_updated", actor.ID, id, metadata)
	}

	return updated, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	if actor.ID == id {
		return fmt.Errorf("%w: admins cannot delete their own account", models.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if s.auditLogger != nil {
		s.auditLogger.LogAccountAction("user_deleted", actor.ID, id, nil)
	}

	return nil
}
