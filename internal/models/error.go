package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication errors
	ErrInvalidCredentials   = errors.New("incorrect username or password")
	ErrAccountNotActive     = errors.New("account is not active")
	ErrNotAuthorizedAsAdmin = errors.New("not authorized as admin")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenMismatch        = errors.New("refresh token does not match the active session")
	ErrUserNotFound         = errors.New("user not found")

	// Account management errors
	ErrInvalidStatusTransition = errors.New("invalid account status transition")

	// Hub errors
	ErrDuplicateEmail = errors.New("email already registered")

	// Upload errors
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrStorageWrite        = errors.New("failed to store file")
)
