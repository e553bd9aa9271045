package corpus

import "sort"

// FilterIndex exposes the distinct categorical values present in the
// corpus for filter option population. Built once at startup; the corpus
// never changes, so no invalidation is needed.
type FilterIndex struct {
	groups        []string
	cohortYears   []int
	fieldsOfStudy []string
}

// NewFilterIndex enumerates the distinct filterable values of the store.
// Groups and fields of study sort ascending; cohort years sort descending
// so the most recent cohort lists first.
func NewFilterIndex(s *Store) *FilterIndex {
	groups := make(map[string]struct{})
	years := make(map[int]struct{})
	fields := make(map[string]struct{})

	for i := range s.All() {
		e := &s.All()[i]
		if e.Group() != "" {
			groups[e.Group()] = struct{}{}
		}
		if e.CohortYear() != 0 {
			years[e.CohortYear()] = struct{}{}
		}
		if e.FieldOfStudy() != "" {
			fields[e.FieldOfStudy()] = struct{}{}
		}
	}

	idx := &FilterIndex{
		groups:        make([]string, 0, len(groups)),
		cohortYears:   make([]int, 0, len(years)),
		fieldsOfStudy: make([]string, 0, len(fields)),
	}
	for g := range groups {
		idx.groups = append(idx.groups, g)
	}
	for y := range years {
		idx.cohortYears = append(idx.cohortYears, y)
	}
	for f := range fields {
		idx.fieldsOfStudy = append(idx.fieldsOfStudy, f)
	}

	sort.Strings(idx.groups)
	sort.Sort(sort.Reverse(sort.IntSlice(idx.cohortYears)))
	sort.Strings(idx.fieldsOfStudy)
	return idx
}

// Groups returns the distinct group values, ascending.
func (i *FilterIndex) Groups() []string { return i.groups }

// CohortYears returns the distinct cohort years, most recent first.
func (i *FilterIndex) CohortYears() []int { return i.cohortYears }

// FieldsOfStudy returns the distinct field-of-study values, ascending.
func (i *FilterIndex) FieldsOfStudy() []string { return i.fieldsOfStudy }
