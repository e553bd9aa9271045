package search

import (
	"github.com/kailas-cloud/facedex/internal/domain/entity"
)

// Corpus is the read-only embedding store contract.
type Corpus interface {
	// Get returns the entity with the given id or domain.ErrEntityNotFound.
	Get(id string) (entity.Entity, error)
	// Index returns the positional index of id inside All, or -1.
	Index(id string) int
	// All returns the full record slice, index-aligned with Normalized.
	All() []entity.Entity
	// Normalized returns the precomputed unit-length embedding at index i.
	Normalized(i int) []float32
	// Len returns the corpus size.
	Len() int
}

// FilterOptions enumerates the distinct categorical values of the corpus.
type FilterOptions interface {
	Groups() []string
	CohortYears() []int
	FieldsOfStudy() []string
}
