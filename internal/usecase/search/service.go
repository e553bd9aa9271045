// Package search ranks the corpus against text or entity queries by
// cosine similarity.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facedex/internal/domain"
	"github.com/kailas-cloud/facedex/internal/domain/entity"
	"github.com/kailas-cloud/facedex/internal/domain/search/filter"
	"github.com/kailas-cloud/facedex/internal/domain/search/mode"
	"github.com/kailas-cloud/facedex/internal/domain/search/query"
	"github.com/kailas-cloud/facedex/internal/domain/search/result"
	"github.com/kailas-cloud/facedex/internal/logger"
	"github.com/kailas-cloud/facedex/internal/metrics"
)

// Service handles semantic people search over the in-memory corpus.
type Service struct {
	corpus    Corpus
	options   FilterOptions
	encoder   domain.Encoder
	cache     *Cache
	norm      *Normalizer
	moderator domain.Moderator
}

// New creates a search service.
func New(corpus Corpus, options FilterOptions, encoder domain.Encoder, cache *Cache, norm *Normalizer) *Service {
	return &Service{
		corpus:  corpus,
		options: options,
		encoder: encoder,
		cache:   cache,
		norm:    norm,
	}
}

// WithModerator enables the query moderation check. A nil moderator
// leaves it disabled.
func (s *Service) WithModerator(m domain.Moderator) *Service {
	s.moderator = m
	return s
}

// Search ranks the corpus against a free-text description.
// Validation failures surface before any encode or scan happens.
func (s *Service) Search(ctx context.Context, text string, flt filter.Filter, k int) ([]result.Result, error) {
	q, err := query.NewText(text, flt, k)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(mode.Text), "invalid").Inc()
		return nil, err
	}

	if err := s.moderate(ctx, &q); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(mode.Text), "rejected").Inc()
		return nil, err
	}

	results, _, err := s.cache.GetOrCompute(q.CacheKey(), func() ([]result.Result, error) {
		enc, err := s.encoder.Encode(ctx, q.Text())
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		return s.scan(unit(enc.Vector), &q, -1), nil
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(mode.Text), "error").Inc()
		return nil, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(mode.Text), "success").Inc()
	return results, nil
}

// FindSimilar ranks the corpus against an existing entity's stored
// vector. The source entity never appears in its own results.
func (s *Service) FindSimilar(ctx context.Context, entityID string, flt filter.Filter, k int) ([]result.Result, error) {
	q, err := query.NewEntity(entityID, flt, k)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(mode.Entity), "invalid").Inc()
		return nil, err
	}

	results, _, err := s.cache.GetOrCompute(q.CacheKey(), func() ([]result.Result, error) {
		idx := s.corpus.Index(q.EntityID())
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrEntityNotFound, q.EntityID())
		}
		return s.scan(s.corpus.Normalized(idx), &q, idx), nil
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(mode.Entity), "error").Inc()
		return nil, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(mode.Entity), "success").Inc()
	return results, nil
}

// GetEntity returns the entity with the given id.
func (s *Service) GetEntity(_ context.Context, id string) (entity.Entity, error) {
	e, err := s.corpus.Get(id)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

// FilterOptionList is the distinct filterable values of the corpus.
type FilterOptionList struct {
	Groups        []string
	CohortYears   []int
	FieldsOfStudy []string
}

// ListFilterOptions returns the distinct categorical values for filter
// population.
func (s *Service) ListFilterOptions(_ context.Context) FilterOptionList {
	return FilterOptionList{
		Groups:        s.options.Groups(),
		CohortYears:   s.options.CohortYears(),
		FieldsOfStudy: s.options.FieldsOfStudy(),
	}
}

// CorpusSize returns the number of searchable entities.
func (s *Service) CorpusSize() int { return s.corpus.Len() }

// CacheStats returns the result cache instrumentation snapshot.
func (s *Service) CacheStats() CacheStats { return s.cache.Stats() }

// scan runs the full corpus scan for a unit query vector and
// materializes ranked results with normalized display scores.
func (s *Service) scan(queryVec []float32, q *query.Query, excludeIdx int) []result.Result {
	start := time.Now()
	hits := rank(s.corpus, queryVec, q.Filters(), excludeIdx, q.K())
	metrics.SearchDuration.WithLabelValues(string(q.Mode())).Observe(time.Since(start).Seconds())

	entities := s.corpus.All()
	results := make([]result.Result, len(hits))
	for i, h := range hits {
		e := &entities[h.idx]
		results[i] = result.New(
			e.ID(), e.FirstName(), e.LastName(), e.ImageURL(),
			e.Group(), e.CohortYear(), e.FieldOfStudy(),
			h.score, s.norm.Normalize(h.score, q.Mode()),
		)
	}
	return results
}

// moderate checks the query against the moderation policy. Provider
// failures fail open: an unavailable moderator must not take search down.
func (s *Service) moderate(ctx context.Context, q *query.Query) error {
	if s.moderator == nil {
		return nil
	}
	allowed, err := s.moderator.Allow(ctx, q.Text())
	if err != nil {
		logger.FromContext(ctx).Warn("moderation check failed, allowing query", zap.Error(err))
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: blocked by moderation policy", domain.ErrQueryRejected)
	}
	return nil
}
