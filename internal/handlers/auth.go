package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/services"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password, fullName string) (*models.User, error)
	Login(ctx context.Context, email, password string, rememberMe bool, meta services.RequestMeta) (*services.AuthResult, error)
	AdminLogin(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, meta services.RequestMeta) (*services.AuthResult, error)
	Logout(ctx context.Context, user *models.User, meta services.RequestMeta) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"max=255"`
}

// LoginRequest represents a JSON login. Form logins send username and password instead.
type LoginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login, admin login and refresh
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

func newTokenResponse(result *services.AuthResult) TokenResponse {
	return TokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    "bearer",
	}
}

func (h *AuthHandler) requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

// Signup handles account creation. New accounts are pending until an admin activates them.
// @Summary User signup
// @Accept json
// @Param request body SignupRequest true "Signup request"
// @Produce json
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Signup(r.Context(), req.Email, req.Password, strings.TrimSpace(req.FullName))
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// Login handles user login with either a JSON body or an OAuth2 password form
// @Summary User login
// @Accept json,x-www-form-urlencoded
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLoginRequest(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, req.RememberMe, h.requestMeta(r))
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newTokenResponse(result))
}

// AdminLogin handles login for admin accounts
// @Summary Admin login
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin-login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLoginRequest(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.AdminLogin(r.Context(), req.Email, req.Password, h.requestMeta(r))
	if err != nil {
		if errors.Is(err, models.ErrAccountNotActive) {
			pkghttp.WriteForbidden(w, "Your admin account is not active. Please contact support.")
			return
		}
		writeServiceError(w, err, "User")
		return
	}

	resp := newTokenResponse(result)
	resp.IsAdmin = true
	pkghttp.WriteJSON(w, r, http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new token pair. The token may be sent
// as ?refresh_token= or in the JSON body.
// @Summary Refresh tokens
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refresh_token")
	if token == "" && r.Body != nil {
		var req RefreshTokenRequest
		if err := pkghttp.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
		token = req.RefreshToken
	}

	if token == "" {
		pkghttp.WriteBadRequest(w, "refresh_token is required")
		return
	}

	result, err := h.service.Refresh(r.Context(), token, h.requestMeta(r))
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newTokenResponse(result))
}

// Logout revokes the caller's refresh token. Access tokens stay valid until expiry.
// @Summary Logout
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.service.Logout(r.Context(), user, h.requestMeta(r)); err != nil {
		writeServiceError(w, err, "User")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// decodeLoginRequest accepts a JSON body or a form with username and password
func decodeLoginRequest(r *http.Request) (*LoginRequest, error) {
	var req LoginRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, errors.New("invalid form body")
		}
		req.Email = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		req.RememberMe, _ = strconv.ParseBool(r.PostFormValue("remember_me"))
	} else if err := pkghttp.DecodeJSON(r, &req); err != nil {
		return nil, errors.New("invalid request body")
	}

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}
