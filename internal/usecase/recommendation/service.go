// Package recommendation turns a retrieval context into explained practice recommendations.
package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/metrics"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
)

// Strategy selects how recommendations are synthesized.
type Strategy string

// Synthesis strategies.
const (
	StrategyRules Strategy = "rules"
	StrategyLLM   Strategy = "llm"
)

// Config tunes synthesis. The generation fields apply to StrategyLLM only.
type Config struct {
	Strategy    Strategy
	Model       string
	MaxTokens   int
	Temperature float32
}

// Service synthesizes recommendations from retrieved context.
type Service struct {
	retriever    Retriever
	generator    domain.TextGenerator
	explanations ExplanationStore
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// New creates a recommendation service. generator may be nil for StrategyRules.
func New(
	retriever Retriever, generator domain.TextGenerator, explanations ExplanationStore,
	cfg Config, logger *zap.Logger,
) (*Service, error) {
	switch cfg.Strategy {
	case "":
		cfg.Strategy = StrategyRules
	case StrategyRules:
	case StrategyLLM:
		if generator == nil {
			return nil, fmt.Errorf("strategy %s: %w", cfg.Strategy, domain.NewMissingSetting("generation"))
		}
	default:
		return nil, fmt.Errorf("unknown recommendation strategy %q", cfg.Strategy)
	}
	return &Service{
		retriever:    retriever,
		generator:    generator,
		explanations: explanations,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}, nil
}

// Strategy returns the active synthesis strategy.
func (s *Service) Strategy() Strategy { return s.cfg.Strategy }

// Generate retrieves context for req and synthesizes up to MaxRecommendations recommendations.
// Every recommendation refers to a practice in the retrieved context.
func (s *Service) Generate(ctx context.Context, req rag.Request) (domrec.Response, error) {
	rc, err := s.retriever.RetrieveContext(ctx, req)
	if err != nil {
		return domrec.Response{}, fmt.Errorf("retrieve context: %w", err)
	}

	var recs []domrec.Recommendation
	switch s.cfg.Strategy {
	case StrategyLLM:
		recs, err = s.generateLLM(ctx, req.Query(), &rc)
		if err != nil {
			return domrec.Response{}, err
		}
	default:
		recs = BuildRecommendations(&rc, s.newID)
	}

	for i := range recs {
		s.explanations.Put(explanation.Entry{
			ID:                   recs[i].ID,
			PracticeID:           recs[i].PracticeID,
			Explanation:          recs[i].Reasoning,
			PersonalizationNotes: recs[i].PersonalizationNotes,
		})
	}

	metrics.RecommendationsTotal.WithLabelValues(string(s.cfg.Strategy)).Add(float64(len(recs)))
	s.logger.Debug("recommendations generated",
		zap.String("user_id", req.UserID()),
		zap.String("strategy", string(s.cfg.Strategy)),
		zap.Int("count", len(recs)),
	)

	insights := rc.RelevantInsights
	if insights == nil {
		insights = []string{}
	}

	return domrec.Response{
		UserID:          req.UserID(),
		Recommendations: recs,
		Insights:        insights,
		GeneratedAt:     s.now().UTC(),
	}, nil
}

func (s *Service) generateLLM(ctx context.Context, query string, rc *rag.Context) ([]domrec.Recommendation, error) {
	if len(rc.RetrievedPractices) == 0 {
		return []domrec.Recommendation{}, nil
	}

	text, err := s.generator.Generate(ctx, BuildPrompt(query, rc), domain.GenerateOptions{
		Model:       s.cfg.Model,
		System:      systemPrompt,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	recs, err := ParseRecommendations(text, rc, s.newID)
	if err != nil {
		s.logger.Error("generated recommendations rejected", zap.Error(err))
		return nil, err
	}
	return recs, nil
}

// Explanation returns the stored rationale of a recommendation, or domain.ErrNotFound.
func (s *Service) Explanation(id string) (explanation.Entry, error) {
	e, ok := s.explanations.Get(id)
	if !ok {
		return explanation.Entry{}, fmt.Errorf("explanation %s: %w", id, domain.ErrNotFound)
	}
	return e, nil
}
