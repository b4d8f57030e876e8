// Package retrieval assembles the retrieval context used for recommendations.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/history"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	"github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/metrics"
)

// DefaultProviderTimeout bounds each embedding, search and store call.
const DefaultProviderTimeout = 10 * time.Second

// Insight limits.
const (
	maxPracticeInsights  = 3
	maxFrameworkInsights = 2
)

// filterable lists the catalog attributes the vector index can filter on.
var filterable = map[string]bool{
	result.KeyType:       true,
	result.KeyCategory:   true,
	result.KeyDifficulty: true,
	result.KeyFrameworks: true,
	result.KeyTags:       true,
	result.KeyDuration:   true,
}

// Config tunes the retrieval service.
type Config struct {
	// ProviderTimeout bounds each provider call. Zero selects DefaultProviderTimeout.
	ProviderTimeout time.Duration
	// ExcludeSeed drops the seed practice from RetrieveSimilarPractices results.
	ExcludeSeed bool
}

// Service retrieves practices, frameworks and user history for a query.
type Service struct {
	vectors   VectorSearcher
	practices PracticeReader
	sessions  SessionReader
	embed     Embedder
	cfg       Config
	logger    *zap.Logger
}

// New creates a retrieval service.
func New(
	vectors VectorSearcher, practices PracticeReader, sessions SessionReader,
	embed Embedder, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	return &Service{
		vectors:   vectors,
		practices: practices,
		sessions:  sessions,
		embed:     embed,
		cfg:       cfg,
		logger:    logger,
	}
}

// RetrieveContext embeds the query once, then fetches practices, frameworks and the
// user's sessions concurrently. Any failure fails the whole call.
func (s *Service) RetrieveContext(ctx context.Context, req rag.Request) (rag.Context, error) {
	start := time.Now()
	out, err := s.retrieveContext(ctx, req)
	s.observe("context", start, len(out.RetrievedPractices)+len(out.RetrievedFrameworks), err)
	return out, err
}

func (s *Service) retrieveContext(ctx context.Context, req rag.Request) (rag.Context, error) {
	for key := range req.Filters() {
		if !filterable[key] {
			return rag.Context{}, domain.Invalidf("filters: %q is not a filterable field", key)
		}
	}
	filters, err := filter.FromMap(req.Filters())
	if err != nil {
		return rag.Context{}, domain.Invalidf("filters: %v", err)
	}

	vec, err := s.embedText(ctx, req.Query())
	if err != nil {
		return rag.Context{}, err
	}

	var (
		practices  []result.Result
		frameworks []result.Result
		sessions   []session.Session
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		practices, err = s.RetrievePractices(gctx, vec, filters, req.TopK())
		return err
	})
	g.Go(func() error {
		var err error
		frameworks, err = s.RetrieveFrameworks(gctx, vec, filters, req.TopK())
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = s.userSessions(gctx, req.UserID())
		return err
	})
	if err := g.Wait(); err != nil {
		return rag.Context{}, err
	}

	// History folds the full log; only the most recent topK sessions are returned.
	hist := history.Build(sessions)
	recent := sessions
	if len(recent) > req.TopK() {
		recent = recent[:req.TopK()]
	}

	return rag.Context{
		UserID:              req.UserID(),
		UserHistory:         hist,
		RetrievedPractices:  practices,
		RetrievedFrameworks: frameworks,
		UserSessions:        recent,
		RelevantInsights:    Insights(practices, frameworks),
	}, nil
}

// RetrievePractices returns up to topK practices similar to vec.
// The type condition always overrides a type in filters.
func (s *Service) RetrievePractices(
	ctx context.Context, vec []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	return s.retrieveKind(ctx, catalog.KindPractice, vec, filters, topK)
}

// RetrieveFrameworks returns up to topK frameworks similar to vec.
func (s *Service) RetrieveFrameworks(
	ctx context.Context, vec []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	return s.retrieveKind(ctx, catalog.KindFramework, vec, filters, topK)
}

func (s *Service) retrieveKind(
	ctx context.Context, kind catalog.Kind, vec []float32, filters filter.Expression, topK int,
) ([]result.Result, error) {
	expr := filters.With(filter.MustMatch(result.KeyType, string(kind)))
	results, err := s.query(ctx, vec, topK, expr)
	if err != nil {
		return nil, fmt.Errorf("retrieve %ss: %w", kind, err)
	}
	return results, nil
}

// RetrieveSimilarPractices returns practices similar to the stored embedding of practiceID.
// A missing practice or embedding yields an empty slice and a warning, not an error.
func (s *Service) RetrieveSimilarPractices(
	ctx context.Context, practiceID string, topK int,
) ([]result.Result, error) {
	start := time.Now()
	out, err := s.retrieveSimilar(ctx, practiceID, topK)
	s.observe("similar", start, len(out), err)
	return out, err
}

func (s *Service) retrieveSimilar(ctx context.Context, practiceID string, topK int) ([]result.Result, error) {
	if practiceID == "" {
		return nil, domain.Invalidf("practiceId is required")
	}
	topK, err := rag.NormalizeTopK(topK)
	if err != nil {
		return nil, err
	}

	vec, err := s.practiceEmbedding(ctx, practiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("practice has no stored embedding", zap.String("practice_id", practiceID))
			return []result.Result{}, nil
		}
		return nil, err
	}

	expr := filter.Expression{}.With(filter.MustMatch(result.KeyType, string(catalog.KindPractice)))
	if s.cfg.ExcludeSeed {
		expr = expr.Without(filter.MustMatch("id", practiceID))
	}

	results, err := s.query(ctx, vec, topK, expr)
	if err != nil {
		return nil, fmt.Errorf("similar practices: %w", err)
	}
	return results, nil
}

// practiceEmbedding reads the embedding from the practice document, falling back to the
// vector index. Returns domain.ErrNotFound when neither has one.
func (s *Service) practiceEmbedding(ctx context.Context, practiceID string) ([]float32, error) {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	item, err := s.practices.GetPractice(pctx, practiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get practice %s: %w", practiceID, err)
	}
	if len(item.Embedding) > 0 {
		return item.Embedding, nil
	}

	v, err := s.vectors.Fetch(pctx, practiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetch vector %s: %w", practiceID, err)
	}
	if len(v.Values) == 0 {
		return nil, domain.ErrNotFound
	}
	return v.Values, nil
}

// FindPracticesByCategory returns practices in category. Without a query the category
// label itself is embedded, which makes the result a browse listing rather than a search.
func (s *Service) FindPracticesByCategory(
	ctx context.Context, category, query string, topK int,
) ([]result.Result, error) {
	start := time.Now()
	out, err := s.findByCategory(ctx, category, query, topK)
	s.observe("category", start, len(out), err)
	return out, err
}

func (s *Service) findByCategory(ctx context.Context, category, query string, topK int) ([]result.Result, error) {
	if category == "" {
		return nil, domain.Invalidf("category is required")
	}
	topK, err := rag.NormalizeTopK(topK)
	if err != nil {
		return nil, err
	}

	text := query
	if text == "" {
		text = category
	}
	vec, err := s.embedText(ctx, text)
	if err != nil {
		return nil, err
	}

	expr := filter.Expression{}.
		With(filter.MustMatch(result.KeyType, string(catalog.KindPractice))).
		With(filter.MustMatch(result.KeyCategory, category))

	results, err := s.query(ctx, vec, topK, expr)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", category, err)
	}
	return results, nil
}

// Insights formats short lines from the top practices carrying evidence and the
// top frameworks carrying a framework type.
func Insights(practices, frameworks []result.Result) []string {
	out := []string{}

	n := 0
	for i := range practices {
		if n == maxPracticeInsights {
			break
		}
		if ev := practices[i].Evidence(); len(ev) > 0 {
			out = append(out, fmt.Sprintf("%s: %s", practices[i].Title(), ev[0]))
			n++
		}
	}

	n = 0
	for i := range frameworks {
		if n == maxFrameworkInsights {
			break
		}
		if ft := frameworks[i].FrameworkType(); ft != "" {
			out = append(out, fmt.Sprintf("%s (%s framework)", frameworks[i].Title(), ft))
			n++
		}
	}
	return out
}

func (s *Service) embedText(ctx context.Context, text string) ([]float32, error) {
	ectx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	res, err := s.embed.Embed(ectx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}

func (s *Service) query(
	ctx context.Context, vec []float32, topK int, expr filter.Expression,
) ([]result.Result, error) {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	results, err := s.vectors.QuerySimilar(qctx, vec, topK, expr)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add the operation context
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Service) userSessions(ctx context.Context, userID string) ([]session.Session, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	sessions, err := s.sessions.ListByUser(sctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) observe(op string, start time.Time, n int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RetrievalDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.RetrievalResultsTotal.WithLabelValues(op).Add(float64(n))
	}
}
