package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/storage"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
)

// HubCategoryRepository defines the interface for hub category data access.
// Update and Delete carry the rename and delete cascades to entries.
type HubCategoryRepository interface {
	Create(ctx context.Context, category *models.HubCategory) (*models.HubCategory, error)
	GetByID(ctx context.Context, id string) (*models.HubCategory, error)
	List(ctx context.Context, limit, offset int) ([]*models.HubCategory, error)
	Update(ctx context.Context, id string, patch models.HubCategoryUpdate) (before, after *models.HubCategory, err error)
	Delete(ctx context.Context, id string) (*models.HubCategory, int64, error)
}

// ImageStorage stores category images
type ImageStorage interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(url string) storage.CleanupResult
}

// ImageUpload is an image file received with a category
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// CategoryService manages hub categories and their images
type CategoryService struct {
	repo        HubCategoryRepository
	images      ImageStorage
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewCategoryService(repo HubCategoryRepository, images ImageStorage, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *CategoryService {
	return &CategoryService{
		repo:        repo,
		images:      images,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateCategory stores the optional image and creates the category.
// Heading and subtext fall back to their defaults when empty.
func (s *CategoryService) CreateCategory(ctx context.Context, category *models.HubCategory, image *ImageUpload, actor *models.User) (*models.HubCategory, error) {
	category.Category = strings.TrimSpace(category.Category)
	if category.Category == "" {
		return nil, fmt.Errorf("%w: category is required", models.ErrBadRequest)
	}

	var newImage string
	if image != nil {
		url, err := s.saveImage(image)
		if err != nil {
			return nil, err
		}
		newImage = url
		category.ImageURL = &newImage
	}

	created, err := s.repo.Create(ctx, category)
	if err != nil {
		s.cleanup(newImage)
		return nil, s.translate("failed to create hub category", "", err)
	}

	s.audit("hub_category_created", actor, created.ID, map[string]string{"category": created.Category})
	return created, nil
}

func (s *CategoryService) ListCategories(ctx context.Context, limit, offset int) ([]*models.HubCategory, error) {
	categories, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list hub categories", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*models.HubCategory, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate("failed to get hub category", id, err)
	}
	return category, nil
}

// UpdateCategory applies patch and, with an image, replaces the current one.
// Renaming moves every entry of the old name in the same transaction. The replaced
// image is removed only after the change commits.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, patch models.HubCategoryUpdate, image *ImageUpload, actor *models.User) (*models.HubCategory, error) {
	if patch.Category != nil {
		name := strings.TrimSpace(*patch.Category)
		if name == "" {
			return nil, fmt.Errorf("%w: category cannot be empty", models.ErrBadRequest)
		}
		patch.Category = &name
	}

	var newImage string
	if image != nil {
		url, err := s.saveImage(image)
		if err != nil {
			return nil, err
		}
		newImage = url
		patch.ImageURL = &newImage
	}

	before, after, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.cleanup(newImage)
		return nil, s.translate("failed to update hub category", id, err)
	}

	if before.ImageURL != nil && (after.ImageURL == nil || *after.ImageURL != *before.ImageURL) {
		s.cleanup(*before.ImageURL)
	}

	metadata := map[string]string{}
	if before.Category != after.Category {
		metadata["category"] = before.Category + "->" + after.Category
	}
	s.audit("hub_category_updated", actor, id, metadata)

	return after, nil
}

// DeleteCategory removes the category together with every entry filed under it
func (s *CategoryService) DeleteCategory(ctx context.Context, id string, actor *models.User) error {
	deleted, removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.translate("failed to delete hub category", id, err)
	}

	if deleted.ImageURL != nil {
		s.cleanup(*deleted.ImageURL)
	}

	s.audit("hub_category_deleted", actor, id, map[string]string{
		"category":        deleted.Category,
		"entries_removed": strconv.FormatInt(removed, 10),
	})
	return nil
}

func (s *CategoryService) saveImage(image *ImageUpload) (string, error) {
	url, err := s.images.Save(image.Filename, image.Content)
	if err != nil {
		if errors.Is(err, models.ErrFileTooLarge) || errors.Is(err, models.ErrUnsupportedFileType) {
			return "", err
		}
		s.logger.Error("failed to store category image", slog.Any("error", err))
		return "", models.ErrStorageWrite
	}
	return url, nil
}

// cleanup removes an image file; failures are logged and otherwise ignored
func (s *CategoryService) cleanup(url string) {
	if url == "" {
		return
	}

	result := s.images.Remove(url)
	if result.Err != nil {
		s.logger.Warn("failed to remove category image",
			slog.String("path", result.Path),
			slog.Any("error", result.Err))
		return
	}
	if result.Removed {
		s.logger.Debug("removed category image", slog.String("path", result.Path))
	}
}

func (s *CategoryService) translate(msg, id string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrBadRequest):
		return err
	}
	s.logger.Error(msg, slog.String("category_id", id), slog.Any("error", err))
	return models.ErrInternalServer
}

func (s *CategoryService) audit(eventType string, actor *models.User, id string, metadata map[string]string) {
	if s.auditLogger == nil || actor == nil {
		return
	}
	s.auditLogger.LogModerationAction(eventType, actor.ID, id, metadata)
}
