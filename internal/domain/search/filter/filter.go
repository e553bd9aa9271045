// Package filter holds the categorical pre-filter for corpus scans.
package filter

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/facedex/internal/domain/entity"
)

// Filter is a conjunctive exact-match filter over the categorical
// entity attributes. Zero values mean "no constraint".
type Filter struct {
	group        string
	cohortYear   int
	fieldOfStudy string
}

// New creates a Filter. All constraints are optional and ANDed together.
func New(group string, cohortYear int, fieldOfStudy string) Filter {
	return Filter{group: group, cohortYear: cohortYear, fieldOfStudy: fieldOfStudy}
}

// Group returns the group constraint ("" = unconstrained).
func (f Filter) Group() string { return f.group }

// CohortYear returns the cohort year constraint (0 = unconstrained).
func (f Filter) CohortYear() int { return f.cohortYear }

// FieldOfStudy returns the field-of-study constraint ("" = unconstrained).
func (f Filter) FieldOfStudy() string { return f.fieldOfStudy }

// IsEmpty reports whether the filter has no constraints.
func (f Filter) IsEmpty() bool {
	return f.group == "" && f.cohortYear == 0 && f.fieldOfStudy == ""
}

// Matches reports whether the entity satisfies every present constraint.
func (f Filter) Matches(e *entity.Entity) bool {
	if f.group != "" && e.Group() != f.group {
		return false
	}
	if f.cohortYear != 0 && e.CohortYear() != f.cohortYear {
		return false
	}
	if f.fieldOfStudy != "" && e.FieldOfStudy() != f.fieldOfStudy {
		return false
	}
	return true
}

// Canonical returns a deterministic encoding of the filter for cache keys.
func (f Filter) Canonical() string {
	var b strings.Builder
	b.WriteString("group=")
	b.WriteString(f.group)
	b.WriteString("|cohort_year=")
	if f.cohortYear != 0 {
		b.WriteString(strconv.Itoa(f.cohortYear))
	}
	b.WriteString("|field_of_study=")
	b.WriteString(f.fieldOfStudy)
	return b.String()
}
