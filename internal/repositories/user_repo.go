package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/fortifund/fortifund-api/internal/database"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner covers pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, email, password_hash, full_name, role, status, refresh_token, last_login_at, created_by, updated_by, created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.Role, &user.Status, &user.RefreshToken, &user.LastLoginAt,
		&user.CreatedBy, &user.UpdatedBy, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// Create inserts a user. A duplicate email surfaces as models.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleBroker
	}
	if user.Status == "" {
		user.Status = models.StatusPending
	}

	query := `
		INSERT INTO users (id, email, password_hash, full_name, role, status, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName,
		user.Role, user.Status, user.CreatedBy, user.UpdatedBy,
		user.CreatedAt, user.UpdatedAt,
	))
}

// Update saves the admin-editable fields of a user
func (r *UserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	query := `
		UPDATE users SET full_name = $1, role = $2, status = $3, updated_by = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.FullName, user.Role, user.Status, user.UpdatedBy, time.Now(), id,
	))
}

// SetRefreshToken stores the only refresh token that will be honored for the user.
// A nil token revokes the session.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, token, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RotateRefreshToken swaps oldToken for newToken in a single conditional update,
// so a refresh token is honored once even when presented concurrently. Returns
// ErrTokenMismatch when oldToken is no longer the stored token.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3 AND refresh_token = $4`

	result, err := r.pool.Exec(ctx, query, newToken, time.Now(), id, oldToken)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrTokenMismatch
	}

	return nil
}

// RecordLogin stores the new refresh token and stamps last_login_at
func (r *UserRepository) RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error {
	query := `UPDATE users SET refresh_token = $1, last_login_at = $2, updated_at = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, refreshToken, at, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CountByStatus returns the number of users per account status
func (r *UserRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, `SELECT status, COUNT(*) FROM users GROUP BY status`)
}

// CountByRole returns the number of users per role
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
}

func (r *UserRepository) countGrouped(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[key] = count
	}

	return counts, rows.Err()
}
