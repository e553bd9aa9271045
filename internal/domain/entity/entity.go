// Package entity holds the searchable person record.
package entity

import "fmt"

// Entity is one searchable person with a precomputed visual embedding.
// Immutable after corpus load.
type Entity struct {
	id           string
	firstName    string
	lastName     string
	imageURL     string
	group        string
	cohortYear   int
	fieldOfStudy string
	contactEmail string
	embedding    []float32
}

// New validates and creates an Entity. The embedding must be non-empty;
// dimension uniformity across the corpus is enforced by the store.
func New(
	id, firstName, lastName, imageURL string,
	group string, cohortYear int, fieldOfStudy, contactEmail string,
	embedding []float32,
) (Entity, error) {
	if id == "" {
		return Entity{}, fmt.Errorf("entity id is required")
	}
	if len(embedding) == 0 {
		return Entity{}, fmt.Errorf("entity %q has no embedding", id)
	}
	return Entity{
		id:           id,
		firstName:    firstName,
		lastName:     lastName,
		imageURL:     imageURL,
		group:        group,
		cohortYear:   cohortYear,
		fieldOfStudy: fieldOfStudy,
		contactEmail: contactEmail,
		embedding:    embedding,
	}, nil
}

// ID returns the stable unique identifier.
func (e *Entity) ID() string { return e.id }

// FirstName returns the display first name (may be empty).
func (e *Entity) FirstName() string { return e.firstName }

// LastName returns the display last name (may be empty).
func (e *Entity) LastName() string { return e.lastName }

// ImageURL returns the optional display image reference.
func (e *Entity) ImageURL() string { return e.imageURL }

// Group returns the optional group attribute.
func (e *Entity) Group() string { return e.group }

// CohortYear returns the optional cohort year (0 when unset).
func (e *Entity) CohortYear() int { return e.cohortYear }

// FieldOfStudy returns the optional field-of-study attribute.
func (e *Entity) FieldOfStudy() string { return e.fieldOfStudy }

// ContactEmail returns the optional contact email. Not used in ranking.
func (e *Entity) ContactEmail() string { return e.contactEmail }

// Embedding returns the stored embedding vector.
func (e *Entity) Embedding() []float32 { return e.embedding }
