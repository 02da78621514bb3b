package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/services"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
)

// multipartOverhead is the room left for form fields on top of the image size limit
const multipartOverhead = 1 << 20

// CategoryServiceInterface defines the hub category operations used over HTTP
type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, category *models.HubCategory, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error)
	ListCategories(ctx context.Context, limit, offset int) ([]*models.HubCategory, error)
	GetCategory(ctx context.Context, id string) (*models.HubCategory, error)
	UpdateCategory(ctx context.Context, id string, patch models.HubCategoryUpdate, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error)
	DeleteCategory(ctx context.Context, id string, actor *models.User) error
}

// HubCategoryHandler serves hub category browsing and management
type HubCategoryHandler struct {
	service       CategoryServiceInterface
	maxImageBytes int64
	formOverhead  int64
}

func NewHubCategoryHandler(service CategoryServiceInterface, maxImageBytes int64) *HubCategoryHandler {
	return &HubCategoryHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
		formOverhead:  multipartOverhead,
	}
}

// HubCategoryRequest is the JSON body for creating a category
type HubCategoryRequest struct {
	Category    string  `json:"category" validate:"required,max=255"`
	PageHeading string  `json:"page_heading" validate:"max=255"`
	PageSubtext string  `json:"page_subtext" validate:"max=255"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=2048"`
}

// HubCategoryUpdateRequest carries the fields to change; absent means unchanged
type HubCategoryUpdateRequest struct {
	Category    *string `json:"category" validate:"omitempty,max=255"`
	PageHeading *string `json:"page_heading" validate:"omitempty,max=255"`
	PageSubtext *string `json:"page_subtext" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=2048"`
}

// HubCategoryResponse represents a hub category in the HTTP response
type HubCategoryResponse struct {
	ID          string  `json:"id"`
	PageHeading string  `json:"page_heading"`
	PageSubtext string  `json:"page_subtext"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func newHubCategoryResponse(c *models.HubCategory) *HubCategoryResponse {
	return &HubCategoryResponse{
		ID:          c.ID,
		PageHeading: c.PageHeading,
		PageSubtext: c.PageSubtext,
		Category:    c.Category,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

// List returns a page of categories, newest first. Served to members and admins.
// @Router /hub [get]
// @Router /admin/hub [get]
func (h *HubCategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	categories, err := h.service.ListCategories(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	resp := make([]*HubCategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, newHubCategoryResponse(c))
	}
	pkghttp.WriteJSON(w, r, http.StatusOK, resp)
}

// Get returns one category
// @Router /admin/hub/{id} [get]
func (h *HubCategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub category ID")
		return
	}

	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubCategoryResponse(category))
}

// Create creates a category from a JSON body
// @Router /admin/hub [post]
func (h *HubCategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req HubCategoryRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	category := &models.HubCategory{
		Category:    req.Category,
		PageHeading: req.PageHeading,
		PageSubtext: req.PageSubtext,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}

	created, err := h.service.CreateCategory(r.Context(), category, nil, actor)
	if err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusCreated, newHubCategoryResponse(created))
}

// CreateWithImage creates a category from a multipart form with an optional image file
// @Accept multipart/form-data
// @Router /admin/hub/with-image [post]
func (h *HubCategoryHandler) CreateWithImage(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	form, image, ok := h.parseCategoryForm(w, r)
	if !ok {
		return
	}
	if image != nil {
		defer image.close()
	}

	category := &models.HubCategory{
		Category:    form.value("category"),
		PageHeading: form.value("page_heading"),
		PageSubtext: form.value("page_subtext"),
		Description: form.optional("description"),
	}
	if category.Category == "" {
		pkghttp.WriteBadRequest(w, "validation failed: category: this field is required")
		return
	}

	created, err := h.service.CreateCategory(r.Context(), category, image.upload(), actor)
	if err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusCreated, newHubCategoryResponse(created))
}

// Update applies a partial JSON update. A category rename moves its entries along.
// @Router /admin/hub/{id} [put]
func (h *HubCategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub category ID")
		return
	}

	var req HubCategoryUpdateRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	patch := models.HubCategoryUpdate{
		Category:    req.Category,
		PageHeading: req.PageHeading,
		PageSubtext: req.PageSubtext,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}

	updated, err := h.service.UpdateCategory(r.Context(), id, patch, nil, actor)
	if err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubCategoryResponse(updated))
}

// UpdateWithImage applies a partial multipart update; fields left out of the form
// are unchanged and a new image replaces the current one
// @Accept multipart/form-data
// @Router /admin/hub/{id}/with-image [put]
func (h *HubCategoryHandler) UpdateWithImage(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub category ID")
		return
	}

	form, image, ok := h.parseCategoryForm(w, r)
	if !ok {
		return
	}
	if image != nil {
		defer image.close()
	}

	patch := models.HubCategoryUpdate{
		Category:    form.optional("category"),
		PageHeading: form.optional("page_heading"),
		PageSubtext: form.optional("page_subtext"),
		Description: form.optional("description"),
	}

	updated, err := h.service.UpdateCategory(r.Context(), id, patch, image.upload(), actor)
	if err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	pkghttp.WriteJSON(w, r, http.StatusOK, newHubCategoryResponse(updated))
}

// Delete removes a category together with its entries
// @Router /admin/hub/{id} [delete]
func (h *HubCategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid hub category ID")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id, actor); err != nil {
		writeServiceError(w, err, "Hub category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// categoryForm reads values from a parsed multipart form
type categoryForm struct {
	values map[string][]string
}

func (f categoryForm) value(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// optional returns nil when the field was not sent at all
func (f categoryForm) optional(key string) *string {
	v, ok := f.values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// formImage is the uploaded image part of a category form
type formImage struct {
	file     multipart.File
	filename string
}

func (i *formImage) upload() *services.ImageUpload {
	if i == nil {
		return nil
	}
	return &services.ImageUpload{Filename: i.filename, Content: i.file}
}

func (i *formImage) close() {
	i.file.Close()
}

// parseCategoryForm parses a multipart category form. The image part is optional.
// It writes the error response itself and reports false when parsing fails.
func (h *HubCategoryHandler) parseCategoryForm(w http.ResponseWriter, r *http.Request) (categoryForm, *formImage, bool) {
	limit := h.maxImageBytes + h.formOverhead
	if r.ContentLength > limit {
		writeServiceError(w, models.ErrFileTooLarge, "Hub category")
		return categoryForm{}, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeServiceError(w, models.ErrFileTooLarge, "Hub category")
		} else {
			pkghttp.WriteBadRequest(w, "Invalid multipart form")
		}
		return categoryForm{}, nil, false
	}

	form := categoryForm{values: r.MultipartForm.Value}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, true
	}
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid image upload")
		return categoryForm{}, nil, false
	}
	if header.Filename == "" {
		file.Close()
		return form, nil, true
	}

	return form, &formImage{file: file, filename: header.Filename}, true
}
