package repositories

import (
	"context"
)

// StatsRepository gathers the admin dashboard counts from the other repositories
type StatsRepository struct {
	users      *UserRepository
	entries    *HubEntryRepository
	categories *HubCategoryRepository
}

func NewStatsRepository(users *UserRepository, entries *HubEntryRepository, categories *HubCategoryRepository) *StatsRepository {
	return &StatsRepository{users: users, entries: entries, categories: categories}
}

func (r *StatsRepository) CountUsersByStatus(ctx context.Context) (map[string]int, error) {
	return r.users.CountByStatus(ctx)
}

func (r *StatsRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	return r.users.CountByRole(ctx)
}

func (r *StatsRepository) CountEntriesByStatus(ctx context.Context) (approved, pending int, err error) {
	return r.entries.CountByStatus(ctx)
}

func (r *StatsRepository) CountCategories(ctx context.Context) (int, error) {
	return r.categories.Count(ctx)
}
