package search

import (
	"math"
	"sort"

	"github.com/kailas-cloud/facedex/internal/domain/search/filter"
)

// hit is one scored corpus record, identified by its store index.
type hit struct {
	idx   int
	score float64
}

// rank scores every record matching flt against a unit-length query
// vector and returns the top-k hits. Corpus-side vectors are already
// normalized at load, so each score is a single dot product.
// Ordering: raw score descending, entity id ascending on ties.
// excludeIdx removes the query entity from its own results (-1 = none).
func rank(c Corpus, queryVec []float32, flt filter.Filter, excludeIdx, k int) []hit {
	entities := c.All()
	hits := make([]hit, 0, len(entities))

	for i := range entities {
		if i == excludeIdx {
			continue
		}
		if !flt.Matches(&entities[i]) {
			continue
		}
		hits = append(hits, hit{idx: i, score: dot(c.Normalized(i), queryVec)})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return entities[hits[a].idx].ID() < entities[hits[b].idx].ID()
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// unit returns a unit-length copy of v. The zero vector stays zero so
// every pairing scores 0 instead of NaN.
func unit(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
