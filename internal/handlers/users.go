package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, fullName string) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, id string, patch models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, id string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Request/Response DTOs

// UpdateProfileRequest represents the request body for PUT /users/me
type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
}

// UpdateUserRequest represents the admin request body for PUT /users/{id}
type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin broker"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive pending"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    string  `json:"full_name"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	LastLoginAt *string `json:"last_login_at"`
	CreatedBy   string  `json:"created_by"`
	UpdatedBy   string  `json:"updated_by"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// newUserResponse converts a user model to a response DTO
func newUserResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		Status:    user.Status,
		CreatedBy: user.CreatedBy,
		UpdatedBy: user.UpdatedBy,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		at := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &at
	}
	return resp
}

// GetMe returns the authenticated user's profile
//
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} UserResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newUserResponse(user))
}

// UpdateMe changes the authenticated user's own full name
//
// @Summary Update current user
// @Security BearerAuth
// @Accept json
// @Param request body UpdateProfileRequest true "Profile"
// @Produce json
// @Success 200 {object} UserResponse
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user, strings.TrimSpace(req.FullName))
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newUserResponse(updated))
}

// ListUsers retrieves a page of users
//
// @Summary List users
// @Security BearerAuth
// @Param skip query int false "Offset (default 0)" default(0)
// @Param limit query int false "Limit (default 100)" default(100)
// @Produce json
// @Success 200 {array} UserResponse
// @Failure 400 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	users, err := h.service.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	resp := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, newUserResponse(user))
	}
	pkghttp.WriteJSON(w, r, http.StatusOK, resp)
}

// GetUser retrieves a user by ID
//
// @Summary Get user by ID
// @Security BearerAuth
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newUserResponse(user))
}

// UpdateUser changes a user's name, role or status
//
// @Summary Update user
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Changes"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var req UpdateUserRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	patch := models.UserUpdate{
		FullName: req.FullName,
		Role:     req.Role,
		Status:   req.Status,
	}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		patch.FullName = &name
	}

	user, err := h.service.UpdateUser(r.Context(), actor, id, patch)
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newUserResponse(user))
}

// DeleteUser removes a user account
//
// @Summary Delete user
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		writeServiceError(w, err, "User")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
