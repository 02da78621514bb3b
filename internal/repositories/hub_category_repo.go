package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/fortifund/fortifund-api/internal/database"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type HubCategoryRepository struct {
	db *database.DB
}

func NewHubCategoryRepository(db *database.DB) *HubCategoryRepository {
	return &HubCategoryRepository{db: db}
}

const hubCategoryColumns = `id, page_heading, page_subtext, category, description, image_url, created_at, updated_at`

func scanHubCategoryRow(scanner rowScanner) (*models.HubCategory, error) {
	var category models.HubCategory

	err := scanner.Scan(
		&category.ID, &category.PageHeading, &category.PageSubtext, &category.Category,
		&category.Description, &category.ImageURL, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &category, nil
}

func scanHubCategoryRows(rows pgx.Rows) ([]*models.HubCategory, error) {
	defer rows.Close()

	categories := make([]*models.HubCategory, 0)

	for rows.Next() {
		category, err := scanHubCategoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hub category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}

func (r *HubCategoryRepository) Create(ctx context.Context, category *models.HubCategory) (*models.HubCategory, error) {
	category.ID = uuid.New().String()

	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	if category.PageHeading == "" {
		category.PageHeading = models.DefaultPageHeading
	}
	if category.PageSubtext == "" {
		category.PageSubtext = models.DefaultPageSubtext
	}

	query := `
		INSERT INTO hub_categories (id, page_heading, page_subtext, category, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + hubCategoryColumns

	return scanHubCategoryRow(r.db.Pool.QueryRow(ctx, query,
		category.ID, category.PageHeading, category.PageSubtext, category.Category,
		category.Description, category.ImageURL, category.CreatedAt, category.UpdatedAt,
	))
}

func (r *HubCategoryRepository) GetByID(ctx context.Context, id string) (*models.HubCategory, error) {
	query := `SELECT ` + hubCategoryColumns + ` FROM hub_categories WHERE id = $1`
	return scanHubCategoryRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *HubCategoryRepository) List(ctx context.Context, limit, offset int) ([]*models.HubCategory, error) {
	query := `SELECT ` + hubCategoryColumns + ` FROM hub_categories ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query hub categories: %w", err)
	}

	return scanHubCategoryRows(rows)
}

func (r *HubCategoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM hub_categories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hub categories: %w", err)
	}
	return count, nil
}

// ImageURLs returns every image URL currently referenced by a category
func (r *HubCategoryRepository) ImageURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT image_url FROM hub_categories WHERE image_url IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category images: %w", err)
	}

	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan category images: %w", err)
	}
	return urls, nil
}

// Update applies patch to the category. When the name changes every entry filed
// under the old name is renamed in the same transaction. Returns the row as it was
// before and after the change.
func (r *HubCategoryRepository) Update(ctx context.Context, id string, patch models.HubCategoryUpdate) (before, after *models.HubCategory, err error) {
	err = r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		before, err = lockHubCategory(ctx, tx, id)
		if err != nil {
			return err
		}

		next := *before
		applyHubCategoryUpdate(&next, patch)

		query := `
			UPDATE hub_categories
			SET page_heading = $1, page_subtext = $2, category = $3, description = $4, image_url = $5, updated_at = $6
			WHERE id = $7
			RETURNING ` + hubCategoryColumns

		after, err = scanHubCategoryRow(tx.QueryRow(ctx, query,
			next.PageHeading, next.PageSubtext, next.Category, next.Description,
			next.ImageURL, time.Now(), id,
		))
		if err != nil {
			return err
		}

		if after.Category != before.Category {
			if _, err := renameCategoryEntries(ctx, tx, before.Category, after.Category); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

// Delete removes the category and every entry filed under its name in one
// transaction. Returns the deleted row and the number of entries removed.
func (r *HubCategoryRepository) Delete(ctx context.Context, id string) (*models.HubCategory, int64, error) {
	var deleted *models.HubCategory
	var removed int64

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = lockHubCategory(ctx, tx, id)
		if err != nil {
			return err
		}

		removed, err = deleteCategoryEntries(ctx, tx, deleted.Category)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM hub_categories WHERE id = $1`, id); err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return deleted, removed, nil
}

// lockHubCategory reads the category row FOR UPDATE so concurrent renames serialize
func lockHubCategory(ctx context.Context, tx pgx.Tx, id string) (*models.HubCategory, error) {
	query := `SELECT ` + hubCategoryColumns + ` FROM hub_categories WHERE id = $1 FOR UPDATE`
	return scanHubCategoryRow(tx.QueryRow(ctx, query, id))
}

func applyHubCategoryUpdate(category *models.HubCategory, patch models.HubCategoryUpdate) {
	if patch.PageHeading != nil {
		category.PageHeading = *patch.PageHeading
	}
	if patch.PageSubtext != nil {
		category.PageSubtext = *patch.PageSubtext
	}
	if patch.Category != nil {
		category.Category = *patch.Category
	}
	if patch.Description != nil {
		category.Description = patch.Description
	}
	if patch.ImageURL != nil {
		category.ImageURL = patch.ImageURL
	}
}
