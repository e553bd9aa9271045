package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facedex/internal/corpus"
	"github.com/kailas-cloud/facedex/internal/domain"
	healthuc "github.com/kailas-cloud/facedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/facedex/internal/usecase/search"
)

const testCorpus = `[
	{"id": "p1", "first_name": "Ada", "last_name": "Lovelace", "group": "alumni", "cohort_year": 2021, "field_of_study": "math", "embedding": [1, 0]},
	{"id": "p2", "first_name": "Bob", "last_name": "Ross", "group": "staff", "cohort_year": 2019, "field_of_study": "art", "embedding": [0, 1]},
	{"id": "p3", "first_name": "Cam", "last_name": "Nguyen", "group": "alumni", "cohort_year": 2021, "field_of_study": "physics", "embedding": [0.9, 0.1]}
]`

type stubEncoder struct {
	vec []float32
	err error
}

func (s *stubEncoder) Encode(_ context.Context, _ string) (domain.EncodingResult, error) {
	if s.err != nil {
		return domain.EncodingResult{}, s.err
	}
	return domain.EncodingResult{Vector: s.vec}, nil
}

type stubModerator struct{ allow bool }

func (s stubModerator) Allow(_ context.Context, _ string) (bool, error) { return s.allow, nil }

func newTestServer(t *testing.T, enc domain.Encoder) *Server {
	t.Helper()

	store, err := corpus.Load(strings.NewReader(testCorpus), 0)
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	cache, err := searchuc.NewCache(10, time.Minute)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	searchSvc := searchuc.New(store, corpus.NewFilterIndex(store), enc, cache, searchuc.DefaultNormalizer())
	healthSvc := healthuc.New(store, nil)

	return NewServer(searchSvc, nil, nil, healthSvc, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest("GET", path, http.NoBody)
	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, req)

	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response for %s: %v", path, err)
	}
	return rr, body
}

func resultIDs(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["results"].([]any)
	if !ok {
		t.Fatalf("missing results array: %v", body)
	}
	ids := make([]string, len(raw))
	for i, r := range raw {
		ids[i] = r.(map[string]any)["id"].(string)
	}
	return ids
}

func TestHandleSearch(t *testing.T) {
	s := newTestServer(t, &stubEncoder{vec: []float32{1, 0}})

	rr, body := doRequest(t, s, "/api/search?q=person+by+the+window")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	ids := resultIDs(t, body)
	want := []string{"p1", "p3", "p2"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, ids[i], want[i])
		}
	}
	if body["count"].(float64) != 3 {
		t.Errorf("count = %v, want 3", body["count"])
	}

	first := body["results"].([]any)[0].(map[string]any)
	if match := first["match"].(float64); match < 60 || match > 100 {
		t.Errorf("match %v outside display band", match)
	}
}

func TestHandleSearch_KLimit(t *testing.T) {
	s := newTestServer(t, &stubEncoder{vec: []float32{1, 0}})

	rr, body := doRequest(t, s, "/api/search?q=query&k=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if ids := resultIDs(t, body); len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("expected single best result, got %v", ids)
	}
}

func TestHandleSearch_MissingQuery_400(t *testing.T) {
	s := newTestServer(t, &stubEncoder{vec: []float32{1, 0}})

	rr, body := doRequest(t, s, "/api/search")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body["code"] != codeInvalidQuery {
		t.Errorf("code = %v, want %s", body["code"], codeInvalidQuery)
	}
}

func TestHandleSearch_InvalidK_400(t *testing.T) {
	s := newTestServer(t, &stubEncoder{vec: []float32{1, 0}})

	rr, _ := doRequest(t, s, "/api/search?q=query&k=-3")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_Filtered(t *testing.T) {
	s := newTestServer(t, &stubEncoder{vec: []float32{1, 0}})

	rr, body := doRequest(t, s, "/api/search?q=query&group=staff")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if ids := resultIDs(t, body); len(ids) != 1 || ids[0] != "p2" {
		t.Fatalf("expected only p2, got %v", ids)
	}
}

func TestHandleSearch_EncoderDown_502(t *testing.T) {
	s := newTestServer(t, &stubEncoder{err: domain.ErrEncoderUnavailable})

	rr, body := doRequest(t, s, "/api/search?q=query")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if body["code"] != codeEncoderFailure {
		t.Errorf("code = %v, want %s", body["code"], codeEncoderFailure)
	}
}

func TestHandleSearch_Moderated_422(t *testing.T) {
	s := newTestServer(t, &stubEncoder{vec: []float32{1, 0}})
	s.search.WithModerator(stubModerator{allow: false})

	rr, body := doRequest(t, s, "/api/search?q=query")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if body["code"] != codeQueryRejected {
		t.Errorf("code = %v, want %s", body["code"], codeQueryRejected)
	}
}

func TestHandleGetPerson(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	rr, body := doRequest(t, s, "/api/people/p2")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if body["id"] != "p2" || body["first_name"] != "Bob" {
		t.Errorf("unexpected person payload: %v", body)
	}
}

func TestHandleGetPerson_NotFound_404(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	rr, body := doRequest(t, s, "/api/people/nobody")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if body["code"] != codeEntityNotFound {
		t.Errorf("code = %v, want %s", body["code"], codeEntityNotFound)
	}
}

func TestHandleFindSimilar(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	rr, body := doRequest(t, s, "/api/people/p1/similar")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	ids := resultIDs(t, body)
	if len(ids) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ids))
	}
	for _, id := range ids {
		if id == "p1" {
			t.Error("source person must not appear in its own results")
		}
	}
	if ids[0] != "p3" {
		t.Errorf("expected p3 most similar, got %s", ids[0])
	}
}

func TestHandleFindSimilar_Unknown_404(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	rr, _ := doRequest(t, s, "/api/people/nobody/similar")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHandleFilters(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	rr, body := doRequest(t, s, "/api/filters")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := len(body["groups"].([]any)); got != 2 {
		t.Errorf("expected 2 groups, got %d", got)
	}
	years := body["cohort_years"].([]any)
	if years[0].(float64) != 2021 {
		t.Errorf("expected most recent cohort first, got %v", years)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	rr, body := doRequest(t, s, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["total_people"].(float64) != 3 {
		t.Errorf("total_people = %v, want 3", body["total_people"])
	}
	if _, ok := body["cache"].(map[string]any); !ok {
		t.Error("health payload should include cache stats")
	}
}

func TestRoutes_OptionalServicesDisabled(t *testing.T) {
	s := newTestServer(t, &stubEncoder{})

	for _, path := range []string{"/api/leaderboard/people", "/api/analytics/trending"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		rr := httptest.NewRecorder()
		s.Routes().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: got %d, want %d when service disabled", path, rr.Code, http.StatusNotFound)
		}
	}
}
