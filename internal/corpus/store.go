// Package corpus loads and holds the fixed set of entity records with
// their embeddings. The store is built once at startup and never
// mutated, so concurrent reads need no synchronization.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/facedex/internal/domain"
	"github.com/kailas-cloud/facedex/internal/domain/entity"
)

// record is the on-disk JSON shape of one corpus entry.
type record struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Image        string    `json:"image"`
	Group        string    `json:"group"`
	CohortYear   int       `json:"cohort_year"`
	FieldOfStudy string    `json:"field_of_study"`
	Email        string    `json:"email"`
	Embedding    []float64 `json:"embedding"`
}

// Store is the read-only embedding corpus.
type Store struct {
	entities   []entity.Entity
	byID       map[string]int
	normalized [][]float32
	dim        int
	skipped    int
}

// Load parses a JSON array of records and builds the store.
// Every embedding must have the same dimension; dim > 0 additionally pins
// the expected dimension (the query encoder's output size). Duplicate ids
// and dimension mismatches fail the whole load with ErrCorpusIntegrity.
// Records with NaN or Inf components are excluded from the corpus and
// counted in Skipped.
func Load(r io.Reader, dim int) (*Store, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode corpus: %w", domain.ErrCorpusIntegrity, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", domain.ErrCorpusIntegrity)
	}

	s := &Store{
		byID: make(map[string]int, len(records)),
		dim:  dim,
	}

	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", domain.ErrCorpusIntegrity, i)
		}
		if _, dup := s.byID[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrCorpusIntegrity, rec.ID)
		}
		if s.dim == 0 {
			s.dim = len(rec.Embedding)
		}
		if len(rec.Embedding) != s.dim {
			return nil, fmt.Errorf("%w: id %q has dimension %d, want %d",
				domain.ErrCorpusIntegrity, rec.ID, len(rec.Embedding), s.dim)
		}

		vec, finite := toFloat32(rec.Embedding)
		if !finite {
			// Malformed embedding: exclude this record from scoring
			// instead of refusing the whole corpus.
			s.skipped++
			continue
		}

		e, err := entity.New(
			rec.ID, rec.FirstName, rec.LastName, rec.Image,
			rec.Group, rec.CohortYear, rec.FieldOfStudy, rec.Email,
			vec,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCorpusIntegrity, err)
		}

		s.byID[rec.ID] = len(s.entities)
		s.entities = append(s.entities, e)
		s.normalized = append(s.normalized, normalize(vec))
	}

	if len(s.entities) == 0 {
		return nil, fmt.Errorf("%w: no valid records in corpus", domain.ErrCorpusIntegrity)
	}
	return s, nil
}

// LoadFile opens path and loads the corpus from it.
func LoadFile(path string, dim int) (*Store, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return Load(f, dim)
}

// Get returns the entity with the given id.
func (s *Store) Get(id string) (entity.Entity, error) {
	idx, ok := s.byID[id]
	if !ok {
		return entity.Entity{}, fmt.Errorf("%w: %q", domain.ErrEntityNotFound, id)
	}
	return s.entities[idx], nil
}

// Index returns the positional index of id inside All, or -1.
func (s *Store) Index(id string) int {
	idx, ok := s.byID[id]
	if !ok {
		return -1
	}
	return idx
}

// All returns the full record slice. Callers must not mutate it.
func (s *Store) All() []entity.Entity { return s.entities }

// Normalized returns the unit-length embedding for the record at index i.
// A zero embedding stays all-zero so its cosine score is 0, not NaN.
func (s *Store) Normalized(i int) []float32 { return s.normalized[i] }

// Len returns the number of records in the corpus.
func (s *Store) Len() int { return len(s.entities) }

// Dim returns the embedding dimensionality.
func (s *Store) Dim() int { return s.dim }

// Skipped returns the number of records excluded for non-finite embeddings.
func (s *Store) Skipped() int { return s.skipped }

func toFloat32(v []float64) ([]float32, bool) {
	out := make([]float32, len(v))
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
}

// normalize returns a unit-length copy of v. The zero vector is returned
// as a zero copy rather than dividing by a zero norm.
func normalize(v []float32) []float32 {
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
