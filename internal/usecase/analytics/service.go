// Package analytics records search activity and serves trending views.
package analytics

import (
	"context"
	"fmt"

	repo "github.com/kailas-cloud/facedex/internal/repository/analytics"
)

// Recorder is the persistence contract for the search log.
type Recorder interface {
	Record(queryText, user string, resultCount int) error
	Trending(period repo.Period, limit int) []repo.TrendingQuery
	GetStats() repo.Stats
	Flush() error
}

// Service handles search analytics.
type Service struct {
	log Recorder
}

// New creates an analytics service.
func New(log Recorder) *Service {
	return &Service{log: log}
}

// Record logs one search.
func (s *Service) Record(_ context.Context, queryText, user string, resultCount int) error {
	if err := s.log.Record(queryText, user, resultCount); err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// Trending returns the most frequent queries within the period.
// Unknown periods fall back to all-time.
func (s *Service) Trending(_ context.Context, period string, limit int) []repo.TrendingQuery {
	p := repo.Period(period)
	switch p {
	case repo.PeriodDay, repo.PeriodWeek, repo.PeriodMonth:
	default:
		p = repo.PeriodAll
	}
	return s.log.Trending(p, limit)
}

// GetStats returns overall search statistics.
func (s *Service) GetStats(_ context.Context) repo.Stats {
	return s.log.GetStats()
}

// Flush persists the unsaved tail of the search log.
func (s *Service) Flush() error {
	if err := s.log.Flush(); err != nil {
		return fmt.Errorf("flush analytics: %w", err)
	}
	return nil
}
