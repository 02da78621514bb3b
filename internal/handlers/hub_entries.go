package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HubServiceInterface defines the hub entry operations used over HTTP
type HubServiceInterface interface {
	SubmitEntry(ctx context.Context, entry *models.HubEntry, submitter *models.User) (*models.HubEntry, error)
	AdminCreateEntry(ctx context.Context, entry *models.HubEntry, actor *models.User) (*models.HubEntry, error)
	ListPublic(ctx context.Context, category *string, limit, offset int) ([]*models.HubEntry, error)
	GetPublic(ctx context.Context, id string) (*models.HubEntry, error)
	ListAdmin(ctx context.Context, filter models.HubEntryFilter) ([]*models.HubEntry, error)
	GetEntry(ctx context.Context, id string) (*models.HubEntry, error)
	UpdateEntry(ctx context.Context, id string, patch models.HubEntryUpdate, actor *models.User) (*models.HubEntry, error)
	ToggleStatus(ctx context.Context, id string, actor *models.User) (*models.HubEntry, error)
	DeleteEntry(ctx context.Context, id string, actor *models.User) error
}

// HubEntryHandler serves member submissions and their moderation
type HubEntryHandler struct {
	service HubServiceInterface
}

func NewHubEntryHandler(service HubServiceInterface) *HubEntryHandler {
	return &HubEntryHandler{service: service}
}

// HubEntryRequest is the body for submissions and admin creates. Status is
// ignored for member submissions.
type HubEntryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Category    string  `json:"category" validate:"required,max=255"`
	Description *string `json:"description"`
	URL         *string `json:"url" validate:"omitempty,url,max=2048"`
	Status      bool    `json:"status"`
	CreatedBy   string  `json:"created_by" validate:"max=255"`
}

func (req *HubEntryRequest) toModel() *models.HubEntry {
	return &models.HubEntry{
		Name:        strings.TrimSpace(req.Name),
		Email:       req.Email,
		Category:    req.Category,
		Description: req.Description,
		URL:         req.URL,
		Status:      req.Status,
		CreatedBy:   strings.TrimSpace(req.CreatedBy),
	}
}

// HubEntryUpdateRequest carries the fields an admin may change; absent means unchanged
type HubEntryUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	URL         *string `json:"url" validate:"omitempty,url,max=2048"`
	Status      *bool   `json:"status"`
}

// HubEntryResponse represents a hub entry in the HTTP response
type HubEntryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Status      bool    `json:"status"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func newHubEntryResponse(entry *models.HubEntry) *HubEntryResponse {
	return &HubEntryResponse{
		ID:          entry.ID,
		Name:        entry.Name,
		Email:       entry.Email,
		Category:    entry.Category,
		Description: entry.Description,
		URL:         entry.URL,
		Status:      entry.Status,
		CreatedBy:   entry.CreatedBy,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   entry.UpdatedAt.Format(time.RFC3339),
	}
}

func newHubEntryList(entries []*models.HubEntry) []*HubEntryResponse {
	resp := make([]*HubEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, newHubEntryResponse(entry))
	}
	return resp
}

func decodeHubEntryRequest(r *http.Request) (*HubEntryRequest, string) {
	var req HubEntryRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		return nil, "Invalid request body"
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err.Error()
	}
	return &req, ""
}

// Submit files a member submission for moderation
// @Summary Submit hub entry
// @Security BearerAuth
// @Accept json
// @Success 201 {object} HubEntryResponse
// @Failure 409 {object} ErrorResponse
// @Router /user-hub [post]
func (h *HubEntryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	req, msg := decodeHubEntryRequest(r)
	if req == nil {
		pkghttp.WriteBadRequest(w, msg)
		return
	}

	entry, err := h.service.SubmitEntry(r.Context(), req.toModel(), user)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusCreated, newHubEntryResponse(entry))
}

// ListPublic returns approved entries
// @Summary List approved hub entries
// @Security BearerAuth
// @Param skip query int false "Offset"
// @Param limit query int false "Limit"
// @Success 200 {array} HubEntryResponse
// @Router /user-hub [get]
func (h *HubEntryHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	h.listPublic(w, r, nil)
}

// ListPublicByCategory returns approved entries in one category
// @Router /user-hub/category/{category} [get]
func (h *HubEntryHandler) ListPublicByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	h.listPublic(w, r, &category)
}

func (h *HubEntryHandler) listPublic(w http.ResponseWriter, r *http.Request, category *string) {
	page, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	entries, err := h.service.ListPublic(r.Context(), category, page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubEntryList(entries))
}

// GetPublic returns one approved entry; pending entries are reported as missing
// @Router /user-hub/{id} [get]
func (h *HubEntryHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub entry ID")
		return
	}

	entry, err := h.service.GetPublic(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubEntryResponse(entry))
}

// AdminCreate creates an entry with the status given in the body
// @Router /admin/user-hub [post]
func (h *HubEntryHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	req, msg := decodeHubEntryRequest(r)
	if req == nil {
		pkghttp.WriteBadRequest(w, msg)
		return
	}

	entry, err := h.service.AdminCreateEntry(r.Context(), req.toModel(), actor)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusCreated, newHubEntryResponse(entry))
}

// AdminList returns entries of any status. ?status=true|false narrows the result.
// @Router /admin/user-hub [get]
func (h *HubEntryHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.adminList(w, r, nil)
}

// AdminListByCategory returns entries of any status in one category
// @Router /admin/user-hub/category/{category} [get]
func (h *HubEntryHandler) AdminListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	h.adminList(w, r, &category)
}

func (h *HubEntryHandler) adminList(w http.ResponseWriter, r *http.Request, category *string) {
	page, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	filter := models.HubEntryFilter{Category: category, Limit: page.Limit, Offset: page.Offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			pkghttp.WriteBadRequest(w, "status must be true or false")
			return
		}
		filter.Status = &status
	}

	entries, err := h.service.ListAdmin(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubEntryList(entries))
}

// AdminGet returns any entry by ID
// @Router /admin/user-hub/{id} [get]
func (h *HubEntryHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub entry ID")
		return
	}

	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubEntryResponse(entry))
}

// AdminUpdate applies a partial update
// @Router /admin/user-hub/{id} [put]
func (h *HubEntryHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub entry ID")
		return
	}

	var req HubEntryUpdateRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	patch := models.HubEntryUpdate{
		Name:        req.Name,
		Email:       req.Email,
		Category:    req.Category,
		Description: req.Description,
		URL:         req.URL,
		Status:      req.Status,
	}

	entry, err := h.service.UpdateEntry(r.Context(), id, patch, actor)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubEntryResponse(entry))
}

// ToggleStatus flips an entry between approved and pending
// @Router /admin/user-hub/{id}/toggle-status [patch]
func (h *HubEntryHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub entry ID")
		return
	}

	entry, err := h.service.ToggleStatus(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubEntryResponse(entry))
}

// AdminDelete removes an entry
// @Router /admin/user-hub/{id} [delete]
func (h *HubEntryHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub entry ID")
		return
	}

	if err := h.service.DeleteEntry(r.Context(), id, actor); err != nil {
		writeServiceError(w, err, "Hub entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
