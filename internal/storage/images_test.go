package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) *ImageStore {
	t.Helper()
	store, err := NewImageStore(t.TempDir(), "/uploads", maxBytes)
	require.NoError(t, err)
	return store
}

func TestImageStore_Save(t *testing.T) {
	store := newTestStore(t, 1024)

	url, err := store.Save("Photo.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestImageStore_SaveUniqueNames(t *testing.T) {
	store := newTestStore(t, 1024)

	first, err := store.Save("a.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	second, err := store.Save("a.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestImageStore_SaveRejects(t *testing.T) {
	store := newTestStore(t, 4)

	_, err := store.Save("script.exe", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFileType)

	_, err = store.Save("noext", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFileType)

	_, err = store.Save("big.gif", bytes.NewReader(make([]byte, 5)))
	assert.ErrorIs(t, err, models.ErrFileTooLarge)

	_, err = store.Save("exact.webp", bytes.NewReader(make([]byte, 4)))
	assert.NoError(t, err)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImageStore_Remove(t *testing.T) {
	store := newTestStore(t, 1024)

	url, err := store.Save("a.jpeg", strings.NewReader("x"))
	require.NoError(t, err)

	result := store.Remove(url)
	assert.True(t, result.Removed)
	assert.NoError(t, result.Err)

	again := store.Remove(url)
	assert.False(t, again.Removed)
	assert.True(t, again.Skipped)

	external := store.Remove("https://cdn.example.com/a.png")
	assert.True(t, external.Skipped)
}

func TestImageStore_RemoveStaysInsideDir(t *testing.T) {
	store := newTestStore(t, 1024)

	outside := filepath.Join(filepath.Dir(store.Dir()), "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	result := store.Remove("/uploads/../keep.png")
	assert.False(t, result.Removed)

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestAllowedImageExtensions(t *testing.T) {
	assert.Equal(t, []string{".gif", ".jpeg", ".jpg", ".png", ".webp"}, AllowedImageExtensions())
}

func TestImageStore_List(t *testing.T) {
	store := newTestStore(t, 1024)

	url, err := store.Save("a.webp", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "nested.png"), 0o755))

	images, err := store.List()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, url, images[0].URL)
	assert.False(t, images[0].ModTime.IsZero())
}
