package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/fortifund/fortifund-api/internal/storage"
)

// ImageFiles is the upload directory the sweeper scans
type ImageFiles interface {
	List() ([]storage.StoredImage, error)
	Remove(url string) storage.CleanupResult
}

// ImageReferences reports which image URLs are still in use
type ImageReferences interface {
	ImageURLs(ctx context.Context) ([]string, error)
}

// ImageSweeper periodically removes uploaded images that no category references.
// These are left behind when a best-effort removal fails or a category write fails
// after its image was saved.
type ImageSweeper struct {
	files    ImageFiles
	refs     ImageReferences
	logger   *slog.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewImageSweeper creates a sweeper. Files younger than grace are never removed,
// so an upload whose category row is still being written survives the sweep.
func NewImageSweeper(files ImageFiles, refs ImageReferences, logger *slog.Logger, interval, grace time.Duration) *ImageSweeper {
	return &ImageSweeper{
		files:    files,
		refs:     refs,
		logger:   logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a sweep immediately and then once per interval until stopped
func (s *ImageSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopCh:
			s.logger.Info("image sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("image sweeper context cancelled")
			return
		}
	}
}

// Sweep removes unreferenced images older than the grace period and
// returns how many files were removed
func (s *ImageSweeper) Sweep(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// List files before reading references so an image saved and committed
	// in between is never mistaken for an orphan.
	images, err := s.files.List()
	if err != nil {
		s.logger.Error("failed to list uploaded images", slog.Any("error", err))
		return 0
	}
	if len(images) == 0 {
		return 0
	}

	urls, err := s.refs.ImageURLs(sweepCtx)
	if err != nil {
		s.logger.Error("failed to load referenced images", slog.Any("error", err))
		return 0
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		referenced[url] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, image := range images {
		if _, ok := referenced[image.URL]; ok || image.ModTime.After(cutoff) {
			continue
		}

		result := s.files.Remove(image.URL)
		if result.Err != nil {
			s.logger.Warn("failed to remove orphaned image",
				slog.String("path", result.Path),
				slog.Any("error", result.Err),
			)
			continue
		}
		if result.Removed {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("orphaned image sweep completed", slog.Int("files_removed", removed))
	}
	return removed
}

// Stop signals the sweeper to stop
func (s *ImageSweeper) Stop() {
	close(s.stopCh)
}
