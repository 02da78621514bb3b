package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/storage"
	pkgauth "github.com/fortifund/fortifund-api/pkg/auth"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
)

// writeServiceError maps a service error to its HTTP response. resource names the
// thing being looked up for 404 details, e.g. "User".
func writeServiceError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, "Incorrect username or password")
	case errors.Is(err, models.ErrTokenExpired):
		pkghttp.WriteUnauthorized(w, "Token has expired")
	case errors.Is(err, models.ErrTokenMismatch):
		pkghttp.WriteUnauthorized(w, "Refresh token has been revoked")
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrUserNotFound):
		pkghttp.WriteUnauthorized(w, "Could not validate credentials")
	case errors.Is(err, models.ErrAccountNotActive):
		pkghttp.WriteForbidden(w, "Your account is not active. Please contact support.")
	case errors.Is(err, models.ErrNotAuthorizedAsAdmin):
		pkghttp.WriteForbidden(w, "Not authorized as admin")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, detailOf(err, models.ErrForbidden, "Operation not permitted"))
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, resource+" not found")
	case errors.Is(err, models.ErrDuplicateEmail):
		pkghttp.WriteConflict(w, "Email already registered")
	case errors.Is(err, models.ErrInvalidStatusTransition):
		pkghttp.WriteError(w, http.StatusBadRequest, "invalid_status_transition",
			"Account status cannot change that way")
	case errors.Is(err, models.ErrFileTooLarge):
		pkghttp.WriteError(w, http.StatusBadRequest, "file_too_large", "File size too large")
	case errors.Is(err, models.ErrUnsupportedFileType):
		pkghttp.WriteError(w, http.StatusBadRequest, "unsupported_file_type",
			"File type not allowed. Allowed types: "+strings.Join(storage.AllowedImageExtensions(), ", "))
	case errors.Is(err, models.ErrStorageWrite):
		pkghttp.WriteInternalError(w, "Failed to save file")
	case errors.Is(err, models.ErrBadRequest):
		var pvErr *pkgauth.PasswordValidationError
		if errors.As(err, &pvErr) {
			pkghttp.WriteBadRequest(w, pvErr.Error())
			return
		}
		pkghttp.WriteBadRequest(w, detailOf(err, models.ErrBadRequest, "Invalid request"))
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// detailOf strips the sentinel prefix from a wrapped error message
func detailOf(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return fallback
	}
	return msg
}
