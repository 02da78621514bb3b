package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fortifund/fortifund-api/internal/database"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HubEntryRepository struct {
	pool *pgxpool.Pool
}

func NewHubEntryRepository(db *database.DB) *HubEntryRepository {
	return &HubEntryRepository{pool: db.Pool}
}

const hubEntryColumns = `id, name, email, category, description, url, status, created_by, created_at, updated_at`

func scanHubEntryRow(scanner rowScanner) (*models.HubEntry, error) {
	var entry models.HubEntry

	err := scanner.Scan(
		&entry.ID, &entry.Name, &entry.Email, &entry.Category,
		&entry.Description, &entry.URL, &entry.Status, &entry.CreatedBy,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, mapHubEntryError(err)
	}

	return &entry, nil
}

func scanHubEntryRows(rows pgx.Rows) ([]*models.HubEntry, error) {
	defer rows.Close()

	entries := make([]*models.HubEntry, 0)

	for rows.Next() {
		entry, err := scanHubEntryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hub entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// mapHubEntryError turns a violation of the unique email index into ErrDuplicateEmail
func mapHubEntryError(err error) error {
	err = database.MapPostgresError(err)
	if errors.Is(err, models.ErrConflict) {
		return models.ErrDuplicateEmail
	}
	return err
}

func (r *HubEntryRepository) Create(ctx context.Context, entry *models.HubEntry) (*models.HubEntry, error) {
	entry.ID = uuid.New().String()

	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO hub_entries (id, name, email, category, description, url, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + hubEntryColumns

	return scanHubEntryRow(r.pool.QueryRow(ctx, query,
		entry.ID, entry.Name, entry.Email, entry.Category,
		entry.Description, entry.URL, entry.Status, entry.CreatedBy,
		entry.CreatedAt, entry.UpdatedAt,
	))
}

func (r *HubEntryRepository) GetByID(ctx context.Context, id string) (*models.HubEntry, error) {
	query := `SELECT ` + hubEntryColumns + ` FROM hub_entries WHERE id = $1`
	return scanHubEntryRow(r.pool.QueryRow(ctx, query, id))
}

func (r *HubEntryRepository) GetByEmail(ctx context.Context, email string) (*models.HubEntry, error) {
	query := `SELECT ` + hubEntryColumns + ` FROM hub_entries WHERE email = $1`
	return scanHubEntryRow(r.pool.QueryRow(ctx, query, email))
}

// List returns entries newest first, narrowed by the optional status and category filters
func (r *HubEntryRepository) List(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + hubEntryColumns + ` FROM hub_entries`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hub entries: %w", err)
	}

	return scanHubEntryRows(rows)
}

// Update saves every mutable field of entry
func (r *HubEntryRepository) Update(ctx context.Context, id string, entry *models.HubEntry) (*models.HubEntry, error) {
	query := `
		UPDATE hub_entries
		SET name = $1, email = $2, category = $3, description = $4, url = $5, status = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + hubEntryColumns

	return scanHubEntryRow(r.pool.QueryRow(ctx, query,
		entry.Name, entry.Email, entry.Category, entry.Description,
		entry.URL, entry.Status, time.Now(), id,
	))
}

// ToggleStatus flips the visibility of an entry in a single statement
func (r *HubEntryRepository) ToggleStatus(ctx context.Context, id string) (*models.HubEntry, error) {
	query := `
		UPDATE hub_entries SET status = NOT status, updated_at = $1
		WHERE id = $2
		RETURNING ` + hubEntryColumns

	return scanHubEntryRow(r.pool.QueryRow(ctx, query, time.Now(), id))
}

func (r *HubEntryRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM hub_entries WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CountByStatus returns the number of approved and pending entries
func (r *HubEntryRepository) CountByStatus(ctx context.Context) (approved, pending int, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status), COUNT(*) FILTER (WHERE NOT status)
		FROM hub_entries
	`

	if err := r.pool.QueryRow(ctx, query).Scan(&approved, &pending); err != nil {
		return 0, 0, fmt.Errorf("failed to count hub entries: %w", err)
	}

	return approved, pending, nil
}

// renameCategoryEntries moves every entry filed under oldName to newName.
// Runs inside the caller's transaction.
func renameCategoryEntries(ctx context.Context, tx pgx.Tx, oldName, newName string) (int64, error) {
	result, err := tx.Exec(ctx,
		`UPDATE hub_entries SET category = $1, updated_at = $2 WHERE category = $3`,
		newName, time.Now(), oldName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to rename category entries: %w", database.MapPostgresError(err))
	}
	return result.RowsAffected(), nil
}

// deleteCategoryEntries removes every entry filed under name.
// Runs inside the caller's transaction.
func deleteCategoryEntries(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	result, err := tx.Exec(ctx, `DELETE FROM hub_entries WHERE category = $1`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category entries: %w", database.MapPostgresError(err))
	}
	return result.RowsAffected(), nil
}
