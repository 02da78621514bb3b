package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AllowedImageExtensions returns the accepted extensions, sorted
func AllowedImageExtensions() []string {
	exts := make([]string, 0, len(allowedImageExtensions))
	for ext := range allowedImageExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// CleanupResult reports the outcome of a best-effort file removal.
// Callers log it; it never fails the surrounding operation.
type CleanupResult struct {
	Path    string
	Removed bool
	Skipped bool // not a file this store owns, or already gone
	Err     error
}

// ImageStore keeps uploaded category images in a local directory served under URLPrefix
type ImageStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

func NewImageStore(dir, urlPrefix string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &ImageStore{dir: dir, urlPrefix: urlPrefix, maxBytes: maxBytes}, nil
}

// Dir is the directory images are written to
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save validates and writes an image under a fresh uuid name and returns its public URL
func (s *ImageStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return "", models.ErrUnsupportedFileType
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorageWrite, err)
	}
	if n > s.maxBytes {
		return "", models.ErrFileTooLarge
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorageWrite, err)
	}

	return s.urlPrefix + name, nil
}

// StoredImage is a file found in the upload directory
type StoredImage struct {
	URL     string
	ModTime time.Time
}

// List returns the image files in the store, skipping directories and
// anything without an allowed extension
func (s *ImageStore) List() ([]StoredImage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload dir: %w", err)
	}

	images := make([]StoredImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !allowedImageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		images = append(images, StoredImage{URL: s.urlPrefix + entry.Name(), ModTime: info.ModTime()})
	}
	return images, nil
}

// Remove deletes the file behind a URL previously returned by Save.
// URLs outside the store's prefix are skipped.
func (s *ImageStore) Remove(url string) CleanupResult {
	if !strings.HasPrefix(url, s.urlPrefix) {
		return CleanupResult{Path: url, Skipped: true}
	}

	name := filepath.Base(strings.TrimPrefix(url, s.urlPrefix))
	if name == "." || name == string(filepath.Separator) {
		return CleanupResult{Path: url, Skipped: true}
	}

	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return CleanupResult{Path: path, Skipped: true}
		}
		return CleanupResult{Path: path, Err: err}
	}

	return CleanupResult{Path: path, Removed: true}
}
