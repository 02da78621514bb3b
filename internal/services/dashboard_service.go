package services

import (
	"context"
	"log/slog"

	"github.com/fortifund/fortifund-api/internal/models"
	"golang.org/x/sync/errgroup"
)

// DashboardStatsRepository provides the counts behind the admin dashboard
type DashboardStatsRepository interface {
	CountUsersByStatus(ctx context.Context) (map[string]int, error)
	CountUsersByRole(ctx context.Context) (map[string]int, error)
	CountEntriesByStatus(ctx context.Context) (approved, pending int, err error)
	CountCategories(ctx context.Context) (int, error)
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalUsers      int            `json:"total_users"`
	UsersByStatus   map[string]int `json:"users_by_status"`
	UsersByRole     map[string]int `json:"users_by_role"`
	PendingUsers    int            `json:"pending_users"`
	ApprovedEntries int            `json:"approved_entries"`
	PendingEntries  int            `json:"pending_entries"`
	TotalCategories int            `json:"total_categories"`
}

type DashboardService struct {
	repo   DashboardStatsRepository
	logger *slog.Logger
}

func NewDashboardService(repo DashboardStatsRepository, logger *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, logger: logger}
}

// GetStats runs the dashboard counts concurrently
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.CountUsersByStatus(gctx)
		stats.UsersByStatus = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.CountUsersByRole(gctx)
		stats.UsersByRole = counts
		return err
	})
	g.Go(func() error {
		var err error
		stats.ApprovedEntries, stats.PendingEntries, err = s.repo.CountEntriesByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalCategories, err = s.repo.CountCategories(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to compute dashboard stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	for _, n := range stats.UsersByStatus {
		stats.TotalUsers += n
	}
	stats.PendingUsers = stats.UsersByStatus[models.StatusPending]

	return stats, nil
}
