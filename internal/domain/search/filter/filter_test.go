package filter

import (
	"testing"

	"github.com/kailas-cloud/facedex/internal/domain/entity"
)

func makeEntity(t *testing.T, group string, year int, field string) entity.Entity {
	t.Helper()
	e, err := entity.New("p1", "Ada", "L", "", group, year, field, "", []float32{1})
	if err != nil {
		t.Fatalf("entity.New: %v", err)
	}
	return e
}

func TestMatches_Conjunctive(t *testing.T) {
	e := makeEntity(t, "alumni", 2021, "physics")

	tests := []struct {
		name string
		flt  Filter
		want bool
	}{
		{"empty matches everything", Filter{}, true},
		{"group match", New("alumni", 0, ""), true},
		{"group mismatch", New("staff", 0, ""), false},
		{"year match", New("", 2021, ""), true},
		{"year mismatch", New("", 1999, ""), false},
		{"field match", New("", 0, "physics"), true},
		{"field mismatch", New("", 0, "history"), false},
		{"all match", New("alumni", 2021, "physics"), true},
		{"one of three fails", New("alumni", 2021, "history"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flt.Matches(&e); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Error("zero filter should be empty")
	}
	if New("alumni", 0, "").IsEmpty() {
		t.Error("filter with group should not be empty")
	}
	if New("", 2021, "").IsEmpty() {
		t.Error("filter with year should not be empty")
	}
}

func TestCanonical(t *testing.T) {
	if got := (Filter{}).Canonical(); got != "group=|cohort_year=|field_of_study=" {
		t.Errorf("empty canonical form = %q", got)
	}
	want := "group=alumni|cohort_year=2021|field_of_study=physics"
	if got := New("alumni", 2021, "physics").Canonical(); got != want {
		t.Errorf("Canonical = %q, want %q", got, want)
	}
}
