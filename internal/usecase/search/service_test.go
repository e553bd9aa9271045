package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/facedex/internal/domain"
	"github.com/kailas-cloud/facedex/internal/domain/search/filter"
)

// --- Mocks ---

type mockEncoder struct {
	vec    []float32
	err    error
	calls  int
	lastIn string
}

func (m *mockEncoder) Encode(_ context.Context, text string) (domain.EncodingResult, error) {
	m.calls++
	m.lastIn = text
	if m.err != nil {
		return domain.EncodingResult{}, m.err
	}
	return domain.EncodingResult{Vector: m.vec, PromptTokens: 3, TotalTokens: 3}, nil
}

type mockOptions struct{}

func (mockOptions) Groups() []string        { return []string{"alumni", "staff"} }
func (mockOptions) CohortYears() []int      { return []int{2021, 2019} }
func (mockOptions) FieldsOfStudy() []string { return []string{"math", "physics"} }

type mockModerator struct {
	allow  bool
	err    error
	called bool
}

func (m *mockModerator) Allow(_ context.Context, _ string) (bool, error) {
	m.called = true
	return m.allow, m.err
}

func defaultCorpus(t *testing.T) *mockCorpus {
	t.Helper()
	return newMockCorpus(t, []corpusRecord{
		{id: "p1", group: "alumni", year: 2021, field: "math", vector: []float32{1, 0}},
		{id: "p2", group: "staff", year: 2019, field: "physics", vector: []float32{0, 1}},
		{id: "p3", group: "alumni", year: 2021, field: "physics", vector: []float32{0.9, 0.1}},
	})
}

func newTestService(t *testing.T, c *mockCorpus, enc domain.Encoder) *Service {
	t.Helper()
	cache, err := NewCache(10, time.Minute)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return New(c, mockOptions{}, enc, cache, DefaultNormalizer())
}

// --- Tests ---

func TestSearch_RanksByCosine(t *testing.T) {
	enc := &mockEncoder{vec: []float32{1, 0}}
	svc := newTestService(t, defaultCorpus(t), enc)

	results, err := svc.Search(context.Background(), "person near the window", filter.Filter{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantOrder := []string{"p1", "p3", "p2"}
	for i, id := range wantOrder {
		if results[i].EntityID() != id {
			t.Errorf("position %d: got %s, want %s", i, results[i].EntityID(), id)
		}
	}

	for _, r := range results {
		if r.DisplayScore() < DefaultMinPct || r.DisplayScore() > DefaultMaxPct {
			t.Errorf("%s: display score %f outside [%v, %v]",
				r.EntityID(), r.DisplayScore(), DefaultMinPct, DefaultMaxPct)
		}
	}
	if results[0].RawScore() < results[1].RawScore() {
		t.Error("raw scores must be descending")
	}
}

func TestSearch_InvalidQuerySkipsEncoder(t *testing.T) {
	enc := &mockEncoder{vec: []float32{1, 0}}
	svc := newTestService(t, defaultCorpus(t), enc)

	if _, err := svc.Search(context.Background(), "  ", filter.Filter{}, 10); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if _, err := svc.Search(context.Background(), "query", filter.Filter{}, 0); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for k=0, got %v", err)
	}
	if enc.calls != 0 {
		t.Errorf("encoder called %d times for invalid queries", enc.calls)
	}
}

func TestSearch_CacheIdempotence(t *testing.T) {
	enc := &mockEncoder{vec: []float32{1, 0}}
	svc := newTestService(t, defaultCorpus(t), enc)

	first, err := svc.Search(context.Background(), "Red Jacket", filter.Filter{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Case and whitespace variants normalize onto the same cache key.
	second, err := svc.Search(context.Background(), "  red   jacket ", filter.Filter{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if enc.calls != 1 {
		t.Errorf("encoder called %d times, want 1", enc.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("cached results differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].EntityID() != second[i].EntityID() || first[i].RawScore() != second[i].RawScore() {
			t.Errorf("position %d differs between calls", i)
		}
	}
}

func TestSearch_Filtered(t *testing.T) {
	enc := &mockEncoder{vec: []float32{1, 0}}
	svc := newTestService(t, defaultCorpus(t), enc)

	results, err := svc.Search(context.Background(), "query", filter.New("alumni", 2021, "physics"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].EntityID() != "p3" {
		t.Fatalf("expected only p3, got %v results", len(results))
	}
}

func TestSearch_EncoderFailure(t *testing.T) {
	enc := &mockEncoder{err: domain.ErrEncoderUnavailable}
	svc := newTestService(t, defaultCorpus(t), enc)

	if _, err := svc.Search(context.Background(), "query", filter.Filter{}, 10); !errors.Is(err, domain.ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}

	// The failure is not cached: a recovered encoder serves the same query.
	enc.err = nil
	enc.vec = []float32{1, 0}
	if _, err := svc.Search(context.Background(), "query", filter.Filter{}, 10); err != nil {
		t.Fatalf("recovered encoder should serve the query: %v", err)
	}
}

func TestSearch_ModerationBlocks(t *testing.T) {
	enc := &mockEncoder{vec: []float32{1, 0}}
	mod := &mockModerator{allow: false}
	svc := newTestService(t, defaultCorpus(t), enc).WithModerator(mod)

	_, err := svc.Search(context.Background(), "blocked query", filter.Filter{}, 10)
	if !errors.Is(err, domain.ErrQueryRejected) {
		t.Fatalf("expected ErrQueryRejected, got %v", err)
	}
	if !mod.called {
		t.Error("moderator should have been consulted")
	}
	if enc.calls != 0 {
		t.Error("rejected query must not reach the encoder")
	}
}

func TestSearch_ModerationFailsOpen(t *testing.T) {
	enc := &mockEncoder{vec: []float32{1, 0}}
	mod := &mockModerator{err: errors.New("provider down")}
	svc := newTestService(t, defaultCorpus(t), enc).WithModerator(mod)

	results, err := svc.Search(context.Background(), "query", filter.Filter{}, 10)
	if err != nil {
		t.Fatalf("moderator outage must not block search: %v", err)
	}
	if len(results) == 0 {
		t.Error("expected results despite moderator outage")
	}
}

func TestFindSimilar_ExcludesSelf(t *testing.T) {
	enc := &mockEncoder{}
	svc := newTestService(t, defaultCorpus(t), enc)

	results, err := svc.FindSimilar(context.Background(), "p1", filter.Filter{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.EntityID() == "p1" {
			t.Error("source entity must not appear in its own results")
		}
	}
	if results[0].EntityID() != "p3" {
		t.Errorf("expected p3 most similar to p1, got %s", results[0].EntityID())
	}
	if enc.calls != 0 {
		t.Error("entity mode must not call the encoder")
	}
}

func TestFindSimilar_UnknownEntity(t *testing.T) {
	svc := newTestService(t, defaultCorpus(t), &mockEncoder{})

	if _, err := svc.FindSimilar(context.Background(), "nobody", filter.Filter{}, 10); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestGetEntity(t *testing.T) {
	svc := newTestService(t, defaultCorpus(t), &mockEncoder{})

	e, err := svc.GetEntity(context.Background(), "p2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "p2" || e.Group() != "staff" {
		t.Errorf("unexpected entity: %s %s", e.ID(), e.Group())
	}

	if _, err := svc.GetEntity(context.Background(), "nobody"); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestListFilterOptions(t *testing.T) {
	svc := newTestService(t, defaultCorpus(t), &mockEncoder{})

	opts := svc.ListFilterOptions(context.Background())
	if len(opts.Groups) != 2 || len(opts.CohortYears) != 2 || len(opts.FieldsOfStudy) != 2 {
		t.Errorf("unexpected option counts: %+v", opts)
	}
	if svc.CorpusSize() != 3 {
		t.Errorf("CorpusSize = %d, want 3", svc.CorpusSize())
	}
}
