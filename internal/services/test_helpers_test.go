package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// User repository
// ============================================================================

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc             func(ctx context.Context, id string, user *models.User) (*models.User, error)
	SetRefreshTokenFunc    func(ctx context.Context, id string, token *string) error
	RotateRefreshTokenFunc func(ctx context.Context, id, oldToken, newToken string) error
	RecordLoginFunc        func(ctx context.Context, id, refreshToken string, at time.Time) error
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	if m.SetRefreshTokenFunc != nil {
		return m.SetRefreshTokenFunc(ctx, id, token)
	}
	return nil
}

func (m *MockUserRepository) RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) error {
	if m.RotateRefreshTokenFunc != nil {
		return m.RotateRefreshTokenFunc(ctx, id, oldToken, newToken)
	}
	return nil
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, id, refreshToken, at)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// ============================================================================
// Hub repositories
// ============================================================================

// MockHubEntryRepository implements HubEntryRepository for testing
type MockHubEntryRepository struct {
	CreateFunc       func(ctx context.Context, entry *models.HubEntry) (*models.HubEntry, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.HubEntry, error)
	GetByEmailFunc   func(ctx context.Context, email string) (*models.HubEntry, error)
	ListFunc         func(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error)
	UpdateFunc       func(ctx context.Context, id string, entry *models.HubEntry) (*models.HubEntry, error)
	ToggleStatusFunc func(ctx context.Context, id string) (*models.HubEntry, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockHubEntryRepository) Create(ctx context.Context, entry *models.HubEntry) (*models.HubEntry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	created := *entry
	created.ID = "entry-new"
	return &created, nil
}

func (m *MockHubEntryRepository) GetByID(ctx context.Context, id string) (*models.HubEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockHubEntryRepository) GetByEmail(ctx context.Context, email string) (*models.HubEntry, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockHubEntryRepository) List(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.HubEntry{}, nil
}

func (m *MockHubEntryRepository) Update(ctx context.Context, id string, entry *models.HubEntry) (*models.HubEntry, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, entry)
	}
	updated := *entry
	return &updated, nil
}

func (m *MockHubEntryRepository) ToggleStatus(ctx context.Context, id string) (*models.HubEntry, error) {
	if m.ToggleStatusFunc != nil {
		return m.ToggleStatusFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockHubEntryRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockHubCategoryRepository implements HubCategoryRepository for testing
type MockHubCategoryRepository struct {
	CreateFunc  func(ctx context.Context, category *models.HubCategory) (*models.HubCategory, error)
	GetByIDFunc func(ctx context.Context, id string) (*models.HubCategory, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*models.HubCategory, error)
	UpdateFunc  func(ctx context.Context, id string, patch models.HubCategoryUpdate) (*models.HubCategory, *models.HubCategory, error)
	DeleteFunc  func(ctx context.Context, id string) (*models.HubCategory, int64, error)
}

func (m *MockHubCategoryRepository) Create(ctx context.Context, category *models.HubCategory) (*models.HubCategory, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, category)
	}
	created := *category
	created.ID = "category-new"
	return &created, nil
}

func (m *MockHubCategoryRepository) GetByID(ctx context.Context, id string) (*models.HubCategory, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockHubCategoryRepository) List(ctx context.Context, limit, offset int) ([]*models.HubCategory, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.HubCategory{}, nil
}

func (m *MockHubCategoryRepository) Update(ctx context.Context, id string, patch models.HubCategoryUpdate) (*models.HubCategory, *models.HubCategory, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, nil, models.ErrNotFound
}

func (m *MockHubCategoryRepository) Delete(ctx context.Context, id string) (*models.HubCategory, int64, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil, 0, models.ErrNotFound
}

// ============================================================================
// Images, mail and stats
// ============================================================================

// MockImageStorage records saved and removed image URLs
type MockImageStorage struct {
	SaveFunc func(filename string, r io.Reader) (string, error)
	Removed  []string
}

func (m *MockImageStorage) Save(filename string, r io.Reader) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(filename, r)
	}
	return "/uploads/new-" + filename, nil
}

func (m *MockImageStorage) Remove(url string) storage.CleanupResult {
	m.Removed = append(m.Removed, url)
	return storage.CleanupResult{Path: url, Removed: true}
}

// MockMailer captures sent messages
type MockMailer struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, msg EmailMessage) error
	Sent     []EmailMessage
}

func (m *MockMailer) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}

func (m *MockMailer) Messages() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailMessage(nil), m.Sent...)
}

// MockAccountNotifier records signup notifications
type MockAccountNotifier struct {
	Notified []*models.User
}

func (m *MockAccountNotifier) NotifySignup(user *models.User) {
	m.Notified = append(m.Notified, user)
}

// MockStatsRepository implements DashboardStatsRepository for testing
type MockStatsRepository struct {
	CountUsersByStatusFunc   func(ctx context.Context) (map[string]int, error)
	CountUsersByRoleFunc     func(ctx context.Context) (map[string]int, error)
	CountEntriesByStatusFunc func(ctx context.Context) (int, int, error)
	CountCategoriesFunc      func(ctx context.Context) (int, error)
}

func (m *MockStatsRepository) CountUsersByStatus(ctx context.Context) (map[string]int, error) {
	if m.CountUsersByStatusFunc != nil {
		return m.CountUsersByStatusFunc(ctx)
	}
	return map[string]int{}, nil
}

func (m *MockStatsRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	if m.CountUsersByRoleFunc != nil {
		return m.CountUsersByRoleFunc(ctx)
	}
	return map[string]int{}, nil
}

func (m *MockStatsRepository) CountEntriesByStatus(ctx context.Context) (int, int, error) {
	if m.CountEntriesByStatusFunc != nil {
		return m.CountEntriesByStatusFunc(ctx)
	}
	return 0, 0, nil
}

func (m *MockStatsRepository) CountCategories(ctx context.Context) (int, error) {
	if m.CountCategoriesFunc != nil {
		return m.CountCategoriesFunc(ctx)
	}
	return 0, nil
}

// ============================================================================
// Builders
// ============================================================================

// NewTestLogger discards output
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestTokenManager builds a TokenManager with short test lifetimes
func NewTestTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret-32-characters-long!!", "HS256", 15*time.Minute, 24*time.Hour, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager() = %v", err)
	}
	return tm
}

// NewTestUser creates an active broker
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		FullName:  name,
		Role:      models.RoleBroker,
		Status:    models.StatusActive,
		CreatedBy: email,
		UpdatedBy: email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword creates an active broker whose hash matches password
func NewTestUserWithPassword(t *testing.T, id, email, password string) *models.User {
	t.Helper()
	user := NewTestUser(id, email, "")
	user.PasswordHash = MustHashPassword(t, password)
	return user
}

// NewTestAdmin creates an active admin
func NewTestAdmin(id, email string) *models.User {
	user := NewTestUser(id, email, "Admin")
	user.Role = models.RoleAdmin
	return user
}

// NewTestUserWithStatus creates a broker with the given status
func NewTestUserWithStatus(id, email, status string) *models.User {
	user := NewTestUser(id, email, "")
	user.Status = status
	return user
}

// MustHashPassword hashes with the minimum bcrypt cost to keep tests fast
func MustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

// NewTestHubEntry creates an entry in the given category
func NewTestHubEntry(id, email, category string, approved bool) *models.HubEntry {
	now := time.Now()
	return &models.HubEntry{
		ID:        id,
		Name:      "Entry " + strings.Split(email, "@")[0],
		Email:     email,
		Category:  category,
		Status:    approved,
		CreatedBy: "seed",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
