// Package leaderboard aggregates which entities show up in search
// results across distinct queries.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facedex/internal/domain/search/result"
	repo "github.com/kailas-cloud/facedex/internal/repository/leaderboard"
)

// MaxLimit caps leaderboard page sizes.
const MaxLimit = 100

// Service handles leaderboard recording and reads.
type Service struct {
	repo Repository
}

// New creates a leaderboard service.
func New(r Repository) *Service {
	return &Service{repo: r}
}

// Record stores the appearances from one search. Each (query, entity)
// pair counts once no matter how often the query repeats.
func (s *Service) Record(ctx context.Context, queryText string, results []result.Result) (int, error) {
	n, err := s.repo.RecordAppearances(ctx, queryText, results)
	if err != nil {
		return 0, fmt.Errorf("record appearances: %w", err)
	}
	return n, nil
}

// TopEntities returns the individual leaderboard.
func (s *Service) TopEntities(ctx context.Context, limit int) ([]repo.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	entries, err := s.repo.TopEntities(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top entities: %w", err)
	}
	return entries, nil
}

// TopGroups returns the group leaderboard.
func (s *Service) TopGroups(ctx context.Context) ([]repo.GroupEntry, error) {
	entries, err := s.repo.TopGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("top groups: %w", err)
	}
	return entries, nil
}

// GetStats returns overall leaderboard counters.
func (s *Service) GetStats(ctx context.Context) (repo.Stats, error) {
	st, err := s.repo.GetStats(ctx)
	if err != nil {
		return repo.Stats{}, fmt.Errorf("leaderboard stats: %w", err)
	}
	return st, nil
}
