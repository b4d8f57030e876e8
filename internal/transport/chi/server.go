// Package chi exposes the coaching pipeline over a JSON REST API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
	"github.com/kailas-cloud/ilpcoach/internal/logger"
	healthuc "github.com/kailas-cloud/ilpcoach/internal/usecase/health"
)

// Defaults applied when Config fields are not positive.
const (
	DefaultTopK         = 5
	DefaultMaxBodyBytes = 4 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Config tunes request handling.
type Config struct {
	// DefaultTopK replaces an absent or zero topK in request bodies.
	DefaultTopK int
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64
	// Stub answers every /api request with the stub body instead of calling the services.
	Stub bool
}

// Deps are the services behind the API. All but Health may be nil in stub mode.
type Deps struct {
	Retriever   Retriever
	Recommender Recommender
	Sessions    Sessions
	Catalog     Catalog
	Health      HealthChecker
}

// Server serves the coaching API.
type Server struct {
	deps          Deps
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps, cfg Config, logger *zap.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{deps: deps, cfg: cfg, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeConflict),
	}
	return s
}

// Register mounts all routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r gochi.Router) {
		r.Use(s.stubGuard)

		r.Post("/rag/context", s.RetrieveContext)
		r.Post("/rag/recommendations", s.GenerateRecommendations)
		r.Post("/rag/search", s.AdvancedSearch)
		r.Post("/rag/similar", s.SimilarPractices)
		r.Post("/rag/category", s.CategoryPractices)
		r.Get("/recommendations/{id}/explanation", s.GetExplanation)

		r.Post("/sessions", s.RecordSession)
		r.Get("/users/{userId}/sessions", s.ListSessions)

		r.Post("/catalog/practices", s.AddPractices)
		r.Post("/catalog/frameworks", s.AddFrameworks)
		r.Get("/catalog/stats", s.CatalogStats)
	})
}

// Handler returns a router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := gochi.NewRouter()
	s.Register(r)
	return r
}

// stubGuard short-circuits /api requests when the backends are not configured.
// Writes are acknowledged so clients keep their local copy; reads report unavailability.
func (s *Server) stubGuard(next http.Handler) http.Handler {
	if !s.cfg.Stub {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusServiceUnavailable
		if r.Method == http.MethodPost {
			status = http.StatusOK
		}
		writeStub(w, status)
	})
}

// RetrieveContext handles POST /api/rag/context.
func (s *Server) RetrieveContext(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRAGRequest(w, r)
	if !ok {
		return
	}
	ctx, usage := domain.WithUsage(r.Context())

	rc, err := s.deps.Retriever.RetrieveContext(ctx, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, rc)
}

// GenerateRecommendations handles POST /api/rag/recommendations.
func (s *Server) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRAGRequest(w, r)
	if !ok {
		return
	}
	ctx, usage := domain.WithUsage(r.Context())

	resp, err := s.deps.Recommender.Generate(ctx, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// AdvancedSearch handles POST /api/rag/search.
func (s *Server) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !s.decode(w, r, &body) {
		return
	}
	ctx, usage := domain.WithUsage(r.Context())

	results, err := s.deps.Retriever.AdvancedSearch(ctx, body.Query, body.Criteria, s.topK(body.TopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, ResultListResponse{Results: nonNilResults(results)})
}

// SimilarPractices handles POST /api/rag/similar.
func (s *Server) SimilarPractices(w http.ResponseWriter, r *http.Request) {
	var body SimilarRequest
	if !s.decode(w, r, &body) {
		return
	}

	results, err := s.deps.Retriever.RetrieveSimilarPractices(r.Context(), body.PracticeID, s.topK(body.TopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultListResponse{Results: nonNilResults(results)})
}

// CategoryPractices handles POST /api/rag/category.
func (s *Server) CategoryPractices(w http.ResponseWriter, r *http.Request) {
	var body CategoryRequest
	if !s.decode(w, r, &body) {
		return
	}
	ctx, usage := domain.WithUsage(r.Context())

	results, err := s.deps.Retriever.FindPracticesByCategory(ctx, body.Category, body.Query, s.topK(body.TopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, ResultListResponse{Results: nonNilResults(results)})
}

// GetExplanation handles GET /api/recommendations/{id}/explanation.
func (s *Server) GetExplanation(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Recommender.Explanation(gochi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ExplanationResponse(entry))
}

// RecordSession handles POST /api/sessions.
func (s *Server) RecordSession(w http.ResponseWriter, r *http.Request) {
	var body domsess.Session
	if !s.decode(w, r, &body) {
		return
	}

	stored, err := s.deps.Sessions.Record(r.Context(), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

// ListSessions handles GET /api/users/{userId}/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.Sessions.List(r.Context(), gochi.URLParam(r, "userId"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions})
}

// AddPractices handles POST /api/catalog/practices.
func (s *Server) AddPractices(w http.ResponseWriter, r *http.Request) {
	s.addCatalog(w, r, domcat.KindPractice)
}

// AddFrameworks handles POST /api/catalog/frameworks.
func (s *Server) AddFrameworks(w http.ResponseWriter, r *http.Request) {
	s.addCatalog(w, r, domcat.KindFramework)
}

func (s *Server) addCatalog(w http.ResponseWriter, r *http.Request, kind domcat.Kind) {
	var body CatalogRequest
	if !s.decode(w, r, &body) {
		return
	}
	if len(body.Items) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "items must not be empty")
		return
	}
	ctx, usage := domain.WithUsage(r.Context())

	log := logger.FromContext(ctx)
	progress := func(p vector.Progress) {
		log.Debug("catalog upsert progress",
			zap.String("kind", string(kind)), zap.Int("done", p.Done), zap.Int("total", p.Total))
	}

	add := s.deps.Catalog.AddPractices
	if kind == domcat.KindFramework {
		add = s.deps.Catalog.AddFrameworks
	}
	ids, err := add(ctx, body.Items, progress)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusCreated, CatalogResponse{IDs: ids, Count: len(ids)})
}

// CatalogStats handles GET /api/catalog/stats.
func (s *Server) CatalogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Catalog.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func (s *Server) decodeRAGRequest(w http.ResponseWriter, r *http.Request) (rag.Request, bool) {
	var body RAGRequest
	if !s.decode(w, r, &body) {
		return rag.Request{}, false
	}
	req, err := rag.NewRequest(body.UserID, body.Query, body.Filters, s.topK(body.TopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return rag.Request{}, false
	}
	return req, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) topK(topK int) int {
	if topK == 0 {
		return s.cfg.DefaultTopK
	}
	return topK
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	rep := usage.Report()
	if rep.Embedded {
		w.Header().Set(embeddingTokensHead, strconv.Itoa(rep.EmbeddingTokens))
	}
	if rep.Generated {
		w.Header().Set(generationTokensHead, strconv.Itoa(rep.GenerationTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeStub(w http.ResponseWriter, status int) {
	writeJSON(w, status, StubResponse{IsStub: true, Message: stubMessage})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Validation and not-found messages are safe to return to the client.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// handleDomainError maps known sentinels to 4xx. Anything else is a backend failure:
// it is logged and the client gets the stub body with 503.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("backend failure", zap.Error(err))
	writeStub(w, http.StatusServiceUnavailable)
}
