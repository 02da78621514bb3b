package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/services"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

const (
	testUserID     = "5b0c8f6e-1f7a-4d0b-9c55-3a3e2d8a1f01"
	testAdminID    = "9e2d4c1a-7b3f-4e6d-8a2c-1d5f0b9e7c02"
	testEntryID    = "c1a7e3d9-2b4f-4a6c-8e0d-7f9b1c3e5a03"
	testCategoryID = "f4b2d8e6-3c1a-4f7e-9b5d-2a8c6e0f4b04"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUser places an authenticated user in the request context, as AuthMiddleware does
func WithUser(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks the status, error code and detail of an error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError, expectedDetail string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	if expectedDetail != "" {
		assert.Equal(t, expectedDetail, resp.Detail)
	} else {
		assert.NotEmpty(t, resp.Detail, "Error detail should not be empty")
	}
}

func newTestUser(id, email, role, status string) *models.User {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.User{
		ID:        id,
		Email:     email,
		FullName:  "Test User",
		Role:      role,
		Status:    status,
		CreatedBy: email,
		UpdatedBy: email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestEntry(id, category string, approved bool) *models.HubEntry {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.HubEntry{
		ID:        id,
		Name:      "Calm Corner",
		Email:     "calm@example.com",
		Category:  category,
		Status:    approved,
		CreatedBy: "Test User",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestCategory(id, name string) *models.HubCategory {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.HubCategory{
		ID:          id,
		PageHeading: models.DefaultPageHeading,
		PageSubtext: models.DefaultPageSubtext,
		Category:    name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func strPtr(s string) *string { return &s }

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc     func(ctx context.Context, email, password, fullName string) (*models.User, error)
	LoginFunc      func(ctx context.Context, email, password string, rememberMe bool, meta services.RequestMeta) (*services.AuthResult, error)
	AdminLoginFunc func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResult, error)
	RefreshFunc    func(ctx context.Context, refreshToken string, meta services.RequestMeta) (*services.AuthResult, error)
	LogoutFunc     func(ctx context.Context, user *models.User, meta services.RequestMeta) error
}

func (m *MockAuthService) Signup(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if m.SignupFunc == nil {
		return nil, models.ErrDuplicateEmail
	}
	return m.SignupFunc(ctx, email, password, fullName)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, rememberMe bool, meta services.RequestMeta) (*services.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, rememberMe, meta)
}

func (m *MockAuthService) AdminLogin(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResult, error) {
	if m.AdminLoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.AdminLoginFunc(ctx, email, password, meta)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string, meta services.RequestMeta) (*services.AuthResult, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrTokenInvalid
	}
	return m.RefreshFunc(ctx, refreshToken, meta)
}

func (m *MockAuthService) Logout(ctx context.Context, user *models.User, meta services.RequestMeta) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, user, meta)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserFunc       func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc     func(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateProfileFunc func(ctx context.Context, user *models.User, fullName string) (*models.User, error)
	UpdateUserFunc    func(ctx context.Context, actor *models.User, id string, patch models.UserUpdate) (*models.User, error)
	DeleteUserFunc    func(ctx context.Context, actor *models.User, id string) error
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, user *models.User, fullName string) (*models.User, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrUserNotFound
	}
	return m.UpdateProfileFunc(ctx, user, fullName)
}

func (m *MockUserService) UpdateUser(ctx context.Context, actor *models.User, id string, patch models.UserUpdate) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, actor, id, patch)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, actor, id)
}

// MockHubService implements HubServiceInterface for testing
type MockHubService struct {
	SubmitEntryFunc      func(ctx context.Context, entry *models.HubEntry, submitter *models.User) (*models.HubEntry, error)
	AdminCreateEntryFunc func(ctx context.Context, entry *models.HubEntry, actor *models.User) (*models.HubEntry, error)
	ListPublicFunc       func(ctx context.Context, category *string, limit, offset int) ([]*models.HubEntry, error)
	GetPublicFunc        func(ctx context.Context, id string) (*models.HubEntry, error)
	ListAdminFunc        func(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error)
	GetEntryFunc         func(ctx context.Context, id string) (*models.HubEntry, error)
	UpdateEntryFunc      func(ctx context.Context, id string, patch models.HubEntryUpdate, actor *models.User) (*models.HubEntry, error)
	ToggleStatusFunc     func(ctx context.Context, id string, actor *models.User) (*models.HubEntry, error)
	DeleteEntryFunc      func(ctx context.Context, id string, actor *models.User) error
}

func (m *MockHubService) SubmitEntry(ctx context.Context, entry *models.HubEntry, submitter *models.User) (*models.HubEntry, error) {
	if m.SubmitEntryFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SubmitEntryFunc(ctx, entry, submitter)
}

func (m *MockHubService) AdminCreateEntry(ctx context.Context, entry *models.HubEntry, actor *models.User) (*models.HubEntry, error) {
	if m.AdminCreateEntryFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.AdminCreateEntryFunc(ctx, entry, actor)
}

func (m *MockHubService) ListPublic(ctx context.Context, category *string, limit, offset int) ([]*models.HubEntry, error) {
	if m.ListPublicFunc == nil {
		return []*models.HubEntry{}, nil
	}
	return m.ListPublicFunc(ctx, category, limit, offset)
}

func (m *MockHubService) GetPublic(ctx context.Context, id string) (*models.HubEntry, error) {
	if m.GetPublicFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetPublicFunc(ctx, id)
}

func (m *MockHubService) ListAdmin(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error) {
	if m.ListAdminFunc == nil {
		return []*models.HubEntry{}, nil
	}
	return m.ListAdminFunc(ctx, filter)
}

func (m *MockHubService) GetEntry(ctx context.Context, id string) (*models.HubEntry, error) {
	if m.GetEntryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetEntryFunc(ctx, id)
}

func (m *MockHubService) UpdateEntry(ctx context.Context, id string, patch models.HubEntryUpdate, actor *models.User) (*models.HubEntry, error) {
	if m.UpdateEntryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateEntryFunc(ctx, id, patch, actor)
}

func (m *MockHubService) ToggleStatus(ctx context.Context, id string, actor *models.User) (*models.HubEntry, error) {
	if m.ToggleStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ToggleStatusFunc(ctx, id, actor)
}

func (m *MockHubService) DeleteEntry(ctx context.Context, id string, actor *models.User) error {
	if m.DeleteEntryFunc == nil {
		return nil
	}
	return m.DeleteEntryFunc(ctx, id, actor)
}

// MockCategoryService implements CategoryServiceInterface for testing
type MockCategoryService struct {
	CreateCategoryFunc func(ctx context.Context, category *models.HubCategory, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error)
	ListCategoriesFunc func(ctx context.Context, limit, offset int) ([]*models.HubCategory, error)
	GetCategoryFunc    func(ctx context.Context, id string) (*models.HubCategory, error)
	UpdateCategoryFunc func(ctx context.Context, id string, patch models.HubCategoryUpdate, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error)
	DeleteCategoryFunc func(ctx context.Context, id string, actor *models.User) error
}

func (m *MockCategoryService) CreateCategory(ctx context.Context, category *models.HubCategory, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
	if m.CreateCategoryFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateCategoryFunc(ctx, category, image, actor)
}

func (m *MockCategoryService) ListCategories(ctx context.Context, limit, offset int) ([]*models.HubCategory, error) {
	if m.ListCategoriesFunc == nil {
		return []*models.HubCategory{}, nil
	}
	return m.ListCategoriesFunc(ctx, limit, offset)
}

func (m *MockCategoryService) GetCategory(ctx context.Context, id string) (*models.HubCategory, error) {
	if m.GetCategoryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetCategoryFunc(ctx, id)
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, id string, patch models.HubCategoryUpdate, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
	if m.UpdateCategoryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateCategoryFunc(ctx, id, patch, image, actor)
}

func (m *MockCategoryService) DeleteCategory(ctx context.Context, id string, actor *models.User) error {
	if m.DeleteCategoryFunc == nil {
		return nil
	}
	return m.DeleteCategoryFunc(ctx, id, actor)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	GetStatsFunc func(ctx context.Context) (*services.DashboardStats, error)
}

func (m *MockAdminService) GetStats(ctx context.Context) (*services.DashboardStats, error) {
	if m.GetStatsFunc == nil {
		return &services.DashboardStats{}, nil
	}
	return m.GetStatsFunc(ctx)
}
