package result

// Result is a single ranked search hit.
type Result struct {
	entityID     string
	firstName    string
	lastName     string
	imageURL     string
	group        string
	cohortYear   int
	fieldOfStudy string
	rawScore     float64
	displayScore float64
}

// New creates a ranked result.
func New(
	entityID, firstName, lastName, imageURL string,
	group string, cohortYear int, fieldOfStudy string,
	rawScore, displayScore float64,
) Result {
	return Result{
		entityID:     entityID,
		firstName:    firstName,
		lastName:     lastName,
		imageURL:     imageURL,
		group:        group,
		cohortYear:   cohortYear,
		fieldOfStudy: fieldOfStudy,
		rawScore:     rawScore,
		displayScore: displayScore,
	}
}

// EntityID returns the matched entity identifier.
func (r *Result) EntityID() string { return r.entityID }

// FirstName returns the display first name.
func (r *Result) FirstName() string { return r.firstName }

// LastName returns the display last name.
func (r *Result) LastName() string { return r.lastName }

// ImageURL returns the display image reference.
func (r *Result) ImageURL() string { return r.imageURL }

// Group returns the group attribute.
func (r *Result) Group() string { return r.group }

// CohortYear returns the cohort year (0 when unset).
func (r *Result) CohortYear() int { return r.cohortYear }

// FieldOfStudy returns the field-of-study attribute.
func (r *Result) FieldOfStudy() string { return r.fieldOfStudy }

// RawScore returns the cosine similarity against the query vector.
func (r *Result) RawScore() float64 { return r.rawScore }

// DisplayScore returns the normalized user-facing percentage.
func (r *Result) DisplayScore() float64 { return r.displayScore }
