package service

import (
	"context"

	"task-tracker/internal/model"
)

// StatsService answers read-only aggregate questions about an owner's tasks.
type StatsService struct {
	repo TaskStore
	opts Options
}

func NewStatsService(repo TaskStore, opts Options) *StatsService {
	return &StatsService{repo: repo, opts: opts.withDefaults()}
}

// Statistics counts the owner's tasks by status plus the overdue ones.
func (s *StatsService) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	stats, err := s.repo.Stats(ctx, ownerID, model.StartOfDay(s.opts.now()))
	if err != nil {
		return model.Statistics{}, translate(ctx, err)
	}
	return stats, nil
}

// ListSummaries returns the same counts broken down per list.
func (s *StatsService) ListSummaries(ctx context.Context, ownerID string) ([]model.ListSummary, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	summaries, err := s.repo.ListSummaries(ctx, ownerID, model.StartOfDay(s.opts.now()))
	if err != nil {
		return nil, translate(ctx, err)
	}
	return summaries, nil
}
