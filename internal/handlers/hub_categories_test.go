package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMultipartRequest builds a multipart form with the given fields and an optional image
func newMultipartRequest(t *testing.T, method, url string, fields map[string]string, filename string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateCategory_JSON(t *testing.T) {
	admin := newTestUser(testAdminID, "admin@example.com", models.RoleAdmin, models.StatusActive)

	var gotImage *services.ImageUpload
	handler := NewHubCategoryHandler(&MockCategoryService{
		CreateCategoryFunc: func(ctx context.Context, c *models.HubCategory, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
			gotImage = image
			created := newTestCategory(testCategoryID, c.Category)
			created.Description = c.Description
			return created, nil
		},
	}, 5<<20)

	body := HubCategoryRequest{Category: "Meditation", Description: strPtr("Quiet minds")}
	req := WithUser(NewTestRequest(t, http.MethodPost, "/admin/hub", body), admin)
	w := httptest.NewRecorder()
	handler.Create(w, req)

	var resp HubCategoryResponse
	AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "Meditation", resp.Category)
	assert.Equal(t, models.DefaultPageHeading, resp.PageHeading)
	assert.Nil(t, gotImage)
}

func TestCreateCategory_WithImage(t *testing.T) {
	admin := newTestUser(testAdminID, "admin@example.com", models.RoleAdmin, models.StatusActive)

	var gotCategory *models.HubCategory
	var gotFilename string
	var gotContent []byte
	handler := NewHubCategoryHandler(&MockCategoryService{
		CreateCategoryFunc: func(ctx context.Context, c *models.HubCategory, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
			gotCategory = c
			require.NotNil(t, image)
			gotFilename = image.Filename
			content, err := io.ReadAll(image.Content)
			require.NoError(t, err)
			gotContent = content

			created := newTestCategory(testCategoryID, c.Category)
			created.ImageURL = strPtr("/uploads/new.png")
			return created, nil
		},
	}, 5<<20)

	req := newMultipartRequest(t, http.MethodPost, "/admin/hub/with-image", map[string]string{
		"category":     "Meditation",
		"page_heading": "Wellness",
	}, "lotus.png", []byte("png-bytes"))
	w := httptest.NewRecorder()
	handler.CreateWithImage(w, WithUser(req, admin))

	var resp HubCategoryResponse
	AssertJSONResponse(t, w, http.StatusCreated, &resp)
	require.NotNil(t, resp.ImageURL)
	assert.Equal(t, "/uploads/new.png", *resp.ImageURL)
	assert.Equal(t, "Wellness", gotCategory.PageHeading)
	assert.Empty(t, gotCategory.PageSubtext)
	assert.Nil(t, gotCategory.Description)
	assert.Equal(t, "lotus.png", gotFilename)
	assert.Equal(t, []byte("png-bytes"), gotContent)
}

func TestCreateCategory_WithImageErrors(t *testing.T) {
	admin := newTestUser(testAdminID, "admin@example.com", models.RoleAdmin, models.StatusActive)

	tests := []struct {
		name       string
		fields     map[string]string
		filename   string
		image      []byte
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"missing category", map[string]string{}, "", nil, nil, http.StatusBadRequest, "bad_request"},
		{"unsupported type", map[string]string{"category": "Meditation"}, "notes.txt", []byte("x"),
			models.ErrUnsupportedFileType, http.StatusBadRequest, "unsupported_file_type"},
		{"too large for the store", map[string]string{"category": "Meditation"}, "big.png", []byte("x"),
			models.ErrFileTooLarge, http.StatusBadRequest, "file_too_large"},
		{"body over the limit", map[string]string{"category": "Meditation"}, "huge.png", bytes.Repeat([]byte("x"), 2048),
			nil, http.StatusBadRequest, "file_too_large"},
		{"storage failure", map[string]string{"category": "Meditation"}, "ok.png", []byte("x"),
			models.ErrStorageWrite, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHubCategoryHandler(&MockCategoryService{
				CreateCategoryFunc: func(ctx context.Context, c *models.HubCategory, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return newTestCategory(testCategoryID, c.Category), nil
				},
			}, 16)
			handler.formOverhead = 1024

			req := newMultipartRequest(t, http.MethodPost, "/admin/hub/with-image", tt.fields, tt.filename, tt.image)
			w := httptest.NewRecorder()
			handler.CreateWithImage(w, WithUser(req, admin))

			AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode, "")
		})
	}
}

func TestUpdateCategory_WithImageKeepsUnsentFields(t *testing.T) {
	admin := newTestUser(testAdminID, "admin@example.com", models.RoleAdmin, models.StatusActive)

	var gotPatch models.HubCategoryUpdate
	var gotImage *services.ImageUpload
	handler := NewHubCategoryHandler(&MockCategoryService{
		UpdateCategoryFunc: func(ctx context.Context, id string, patch models.HubCategoryUpdate, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
			gotPatch, gotImage = patch, image
			return newTestCategory(id, *patch.Category), nil
		},
	}, 5<<20)

	req := newMultipartRequest(t, http.MethodPut, "/admin/hub/"+testCategoryID+"/with-image",
		map[string]string{"category": "Mindfulness"}, "", nil)
	req = WithChiRouteContext(WithUser(req, admin), map[string]string{"id": testCategoryID})
	w := httptest.NewRecorder()
	handler.UpdateWithImage(w, req)

	var resp HubCategoryResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Mindfulness", resp.Category)
	require.NotNil(t, gotPatch.Category)
	assert.Equal(t, "Mindfulness", *gotPatch.Category)
	assert.Nil(t, gotPatch.PageHeading)
	assert.Nil(t, gotPatch.Description)
	assert.Nil(t, gotImage)
}

func TestUpdateCategory_JSON(t *testing.T) {
	admin := newTestUser(testAdminID, "admin@example.com", models.RoleAdmin, models.StatusActive)

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"renamed", nil, http.StatusOK},
		{"missing", models.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHubCategoryHandler(&MockCategoryService{
				UpdateCategoryFunc: func(ctx context.Context, id string, patch models.HubCategoryUpdate, image *services.ImageUpload, actor *models.User) (*models.HubCategory, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return newTestCategory(id, *patch.Category), nil
				},
			}, 5<<20)

			req := NewTestRequest(t, http.MethodPut, "/admin/hub/"+testCategoryID, HubCategoryUpdateRequest{Category: strPtr("Mindfulness")})
			req = WithChiRouteContext(WithUser(req, admin), map[string]string{"id": testCategoryID})
			w := httptest.NewRecorder()
			handler.Update(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.serviceErr != nil {
				AssertErrorResponse(t, w, http.StatusNotFound, "not_found", "Hub category not found")
			}
		})
	}
}

func TestListCategories(t *testing.T) {
	handler := NewHubCategoryHandler(&MockCategoryService{
		ListCategoriesFunc: func(ctx context.Context, limit, offset int) ([]*models.HubCategory, error) {
			return []*models.HubCategory{
				newTestCategory(testCategoryID, "Meditation"),
			}, nil
		},
	}, 5<<20)

	w := httptest.NewRecorder()
	handler.List(w, NewTestRequest(t, http.MethodGet, "/hub", nil))

	var resp []HubCategoryResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, models.DefaultPageSubtext, resp[0].PageSubtext)
}

func TestDeleteCategory(t *testing.T) {
	admin := newTestUser(testAdminID, "admin@example.com", models.RoleAdmin, models.StatusActive)

	var deleted string
	handler := NewHubCategoryHandler(&MockCategoryService{
		DeleteCategoryFunc: func(ctx context.Context, id string, actor *models.User) error {
			deleted = id
			return nil
		},
	}, 5<<20)

	req := NewTestRequest(t, http.MethodDelete, "/admin/hub/"+testCategoryID, nil)
	req = WithChiRouteContext(WithUser(req, admin), map[string]string{"id": testCategoryID})
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testCategoryID, deleted)
}
