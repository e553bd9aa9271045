package leaderboard

import (
	"context"

	"github.com/kailas-cloud/facedex/internal/domain/search/result"
	repo "github.com/kailas-cloud/facedex/internal/repository/leaderboard"
)

// Repository is the persistence contract for appearance counters.
type Repository interface {
	RecordAppearances(ctx context.Context, queryText string, results []result.Result) (int, error)
	TopEntities(ctx context.Context, limit int) ([]repo.Entry, error)
	TopGroups(ctx context.Context) ([]repo.GroupEntry, error)
	GetStats(ctx context.Context) (repo.Stats, error)
}
