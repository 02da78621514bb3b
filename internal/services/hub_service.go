package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fortifund/fortifund-api/internal/models"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
)

// HubEntryRepository defines the interface for hub entry data access
type HubEntryRepository interface {
	Create(ctx context.Context, entry *models.HubEntry) (*models.HubEntry, error)
	GetByID(ctx context.Context, id string) (*models.HubEntry, error)
	GetByEmail(ctx context.Context, email string) (*models.HubEntry, error)
	List(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error)
	Update(ctx context.Context, id string, entry *models.HubEntry) (*models.HubEntry, error)
	ToggleStatus(ctx context.Context, id string) (*models.HubEntry, error)
	Delete(ctx context.Context, id string) error
}

// HubService runs the submit and approve lifecycle of hub entries.
// Members only ever see approved entries.
type HubService struct {
	repo        HubEntryRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewHubService(repo HubEntryRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *HubService {
	return &HubService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// SubmitEntry files a member submission. It always starts pending and is
// attributed to the submitter regardless of the payload.
func (s *HubService) SubmitEntry(ctx context.Context, entry *models.HubEntry, submitter *models.User) (*models.HubEntry, error) {
	entry.Status = false
	entry.CreatedBy = submitter.DisplayName()

	created, err := s.create(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.logger.Info("hub entry submitted",
		slog.String("entry_id", created.ID),
		slog.String("user_id", submitter.ID),
		slog.String("category", created.Category))

	return created, nil
}

// AdminCreateEntry files an entry on behalf of an admin; the given status is kept
func (s *HubService) AdminCreateEntry(ctx context.Context, entry *models.HubEntry, actor *models.User) (*models.HubEntry, error) {
	if entry.CreatedBy == "" {
		entry.CreatedBy = actor.DisplayName()
	}

	created, err := s.create(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.audit("hub_entry_created", actor, created.ID, map[string]string{"status": strconv.FormatBool(created.Status)})
	return created, nil
}

func (s *HubService) create(ctx context.Context, entry *models.HubEntry) (*models.HubEntry, error) {
	entry.Email = normalizeEmail(entry.Email)
	entry.Category = strings.TrimSpace(entry.Category)

	if _, err := s.repo.GetByEmail(ctx, entry.Email); err == nil {
		return nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check hub entry email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// The unique index still catches a concurrent submission with the same email
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return nil, s.translate("failed to create hub entry", "", err)
	}

	return created, nil
}

// ListPublic returns approved entries, newest first, optionally for one category
func (s *HubService) ListPublic(ctx context.Context, category *string, limit, offset int) ([]*models.HubEntry, error) {
	approved := true
	return s.list(ctx, models.HubEntryFilter{Status: &approved, Category: category, Limit: limit, Offset: offset})
}

// GetPublic returns an approved entry. Pending entries are reported as not found.
func (s *HubService) GetPublic(ctx context.Context, id string) (*models.HubEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.Status {
		return nil, models.ErrNotFound
	}
	return entry, nil
}

// ListAdmin returns every entry matching the filter
func (s *HubService) ListAdmin(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error) {
	return s.list(ctx, filter)
}

func (s *HubService) list(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list hub entries", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

func (s *HubService) GetEntry(ctx context.Context, id string) (*models.HubEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate("failed to get hub entry", id, err)
	}
	return entry, nil
}

// UpdateEntry applies the fields present in patch
func (s *HubService) UpdateEntry(ctx context.Context, id string, patch models.HubEntryUpdate, actor *models.User) (*models.HubEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email != entry.Email {
			existing, err := s.repo.GetByEmail(ctx, email)
			if err == nil && existing.ID != entry.ID {
				return nil, models.ErrDuplicateEmail
			}
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				s.logger.Error("failed to check hub entry email", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
		}
		entry.Email = email
	}
	if patch.Name != nil {
		entry.Name = *patch.Name
	}
	if patch.Category != nil {
		entry.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Description != nil {
		entry.Description = patch.Description
	}
	if patch.URL != nil {
		entry.URL = patch.URL
	}
	if patch.Status != nil {
		entry.Status = *patch.Status
	}

	updated, err := s.repo.Update(ctx, id, entry)
	if err != nil {
		return nil, s.translate("failed to update hub entry", id, err)
	}

	s.audit("hub_entry_updated", actor, id, nil)
	return updated, nil
}

// ToggleStatus approves a pending entry or hides an approved one
func (s *HubService) ToggleStatus(ctx context.Context, id string, actor *models.User) (*models.HubEntry, error) {
	entry, err := s.repo.ToggleStatus(ctx, id)
	if err != nil {
		return nil, s.translate("failed to toggle hub entry status", id, err)
	}

	s.audit("hub_entry_status_toggled", actor, id, map[string]string{"status": strconv.FormatBool(entry.Status)})
	return entry, nil
}

func (s *HubService) DeleteEntry(ctx context.Context, id string, actor *models.User) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate("failed to delete hub entry", id, err)
	}

	s.audit("hub_entry_deleted", actor, id, nil)
	return nil
}

// translate keeps the sentinels callers act on and hides everything else
func (s *HubService) translate(msg, id string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrDuplicateEmail):
		return models.ErrDuplicateEmail
	case errors.Is(err, models.ErrBadRequest):
		return err
	}
	s.logger.Error(msg, slog.String("entry_id", id), slog.Any("error", err))
	return models.ErrInternalServer
}

func (s *HubService) audit(eventType string, actor *models.User, id string, metadata map[string]string) {
	if s.auditLogger == nil || actor == nil {
		return
	}
	s.auditLogger.LogModerationAction(eventType, actor.ID, id, metadata)
}
