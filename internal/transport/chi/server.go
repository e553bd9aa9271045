// Package chi exposes the search core over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facedex/internal/domain"
	"github.com/kailas-cloud/facedex/internal/domain/entity"
	"github.com/kailas-cloud/facedex/internal/domain/search/filter"
	"github.com/kailas-cloud/facedex/internal/domain/search/query"
	"github.com/kailas-cloud/facedex/internal/domain/search/result"
	analyticsuc "github.com/kailas-cloud/facedex/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/facedex/internal/usecase/health"
	leaderboarduc "github.com/kailas-cloud/facedex/internal/usecase/leaderboard"
	searchuc "github.com/kailas-cloud/facedex/internal/usecase/search"
)

// Error codes returned to clients.
const (
	codeBadRequest     = "bad_request"
	codeInvalidQuery   = "invalid_query"
	codeQueryRejected  = "query_rejected"
	codeEntityNotFound = "entity_not_found"
	codeEncoderFailure = "encoder_unavailable"
	codeInternalError  = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the use case services to chi routes.
type Server struct {
	search        *searchuc.Service
	leaderboard   *leaderboarduc.Service
	analytics     *analyticsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. leaderboard and analytics can
// be nil; the corresponding routes then return 404.
func NewServer(
	search *searchuc.Service,
	leaderboard *leaderboarduc.Service,
	analytics *analyticsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:      search,
		leaderboard: leaderboard,
		analytics:   analytics,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrQueryRejected, http.StatusUnprocessableEntity, codeQueryRejected),
		sentinelHandler(domain.ErrEntityNotFound, http.StatusNotFound, codeEntityNotFound),
		sentinelHandler(domain.ErrEncoderUnavailable, http.StatusBadGateway, codeEncoderFailure),
	}
	return s
}

// Routes mounts all API routes on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/filters", s.handleFilters)
		r.Get("/people/{id}", s.handleGetPerson)
		r.Get("/people/{id}/similar", s.handleFindSimilar)

		if s.leaderboard != nil {
			r.Get("/leaderboard/people", s.handleLeaderboardPeople)
			r.Get("/leaderboard/groups", s.handleLeaderboardGroups)
			r.Get("/leaderboard/stats", s.handleLeaderboardStats)
		}
		if s.analytics != nil {
			r.Get("/analytics/trending", s.handleTrending)
			r.Get("/analytics/stats", s.handleAnalyticsStats)
		}
	})

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// personResponse is the JSON shape of one entity.
type personResponse struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ImageURL     string `json:"image_url,omitempty"`
	Group        string `json:"group,omitempty"`
	CohortYear   int    `json:"cohort_year,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	ContactEmail string `json:"email,omitempty"`
}

// resultResponse is the JSON shape of one ranked hit.
type resultResponse struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	ImageURL     string  `json:"image_url,omitempty"`
	Group        string  `json:"group,omitempty"`
	CohortYear   int     `json:"cohort_year,omitempty"`
	FieldOfStudy string  `json:"field_of_study,omitempty"`
	Score        float64 `json:"score"`
	Match        float64 `json:"match"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k := intParam(r, "k", query.DefaultK)
	flt := filterFromRequest(r)

	results, err := s.search.Search(r.Context(), q, flt, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.recordSearch(r, q, results)

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"count":   len(results),
		"results": resultsToJSON(results),
	})
}

func (s *Server) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	k := intParam(r, "k", query.DefaultK)
	flt := filterFromRequest(r)

	results, err := s.search.FindSimilar(r.Context(), id, flt, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"count":   len(results),
		"results": resultsToJSON(results),
	})
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := s.search.GetEntity(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, personToJSON(&e))
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts := s.search.ListFilterOptions(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"groups":          opts.Groups,
		"cohort_years":    opts.CohortYears,
		"fields_of_study": opts.FieldsOfStudy,
	})
}

func (s *Server) handleLeaderboardPeople(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 20)
	entries, err := s.leaderboard.TopEntities(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]map[string]any, len(entries))
	for i, e := range entries {
		items[i] = map[string]any{
			"id":               e.EntityID,
			"first_name":       e.FirstName,
			"last_name":        e.LastName,
			"image_url":        e.ImageURL,
			"group":            e.Group,
			"cohort_year":      e.CohortYear,
			"appearance_count": e.AppearanceCount,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": items})
}

func (s *Server) handleLeaderboardGroups(w http.ResponseWriter, r *http.Request) {
	entries, err := s.leaderboard.TopGroups(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]map[string]any, len(entries))
	for i, e := range entries {
		items[i] = map[string]any{
			"group":             e.Group,
			"total_appearances": e.TotalAppearances,
			"unique_members":    e.UniqueMembers,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": items})
}

func (s *Server) handleLeaderboardStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.leaderboard.GetStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unique_queries":    st.UniqueQueries,
		"unique_people":     st.UniqueEntities,
		"total_appearances": st.TotalAppearances,
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	limit := intParam(r, "limit", 10)
	writeJSON(w, http.StatusOK, map[string]any{
		"trending": s.analytics.Trending(r.Context(), period, limit),
	})
}

func (s *Server) handleAnalyticsStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.GetStats(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	cache := s.search.CacheStats()
	writeJSON(w, status, map[string]any{
		"status":       report.Status,
		"total_people": report.CorpusSize,
		"checks":       report.Checks,
		"cache": map[string]any{
			"size":        cache.Size,
			"max_size":    cache.Capacity,
			"ttl_seconds": int(cache.TTL.Seconds()),
		},
	})
}

// recordSearch feeds the leaderboard and analytics logs. Best effort:
// bookkeeping failures must not fail the search response.
func (s *Server) recordSearch(r *http.Request, q string, results []result.Result) {
	ctx := r.Context()
	if s.leaderboard != nil && len(results) > 0 {
		if _, err := s.leaderboard.Record(ctx, q, results); err != nil {
			s.logger.Warn("leaderboard record failed", zap.Error(err))
		}
	}
	if s.analytics != nil {
		if err := s.analytics.Record(ctx, q, "", len(results)); err != nil {
			s.logger.Warn("analytics record failed", zap.Error(err))
		}
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrQueryRejected,
		domain.ErrEntityNotFound,
		domain.ErrEncoderUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func filterFromRequest(r *http.Request) filter.Filter {
	qs := r.URL.Query()
	return filter.New(
		qs.Get("group"),
		intParam(r, "cohort_year", 0),
		qs.Get("field_of_study"),
	)
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func personToJSON(e *entity.Entity) personResponse {
	return personResponse{
		ID:           e.ID(),
		FirstName:    e.FirstName(),
		LastName:     e.LastName(),
		ImageURL:     e.ImageURL(),
		Group:        e.Group(),
		CohortYear:   e.CohortYear(),
		FieldOfStudy: e.FieldOfStudy(),
		ContactEmail: e.ContactEmail(),
	}
}

func resultsToJSON(results []result.Result) []resultResponse {
	out := make([]resultResponse, len(results))
	for i := range results {
		r := &results[i]
		out[i] = resultResponse{
			ID:           r.EntityID(),
			FirstName:    r.FirstName(),
			LastName:     r.LastName(),
			ImageURL:     r.ImageURL(),
			Group:        r.Group(),
			CohortYear:   r.CohortYear(),
			FieldOfStudy: r.FieldOfStudy(),
			Score:        r.RawScore(),
			Match:        r.DisplayScore(),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
