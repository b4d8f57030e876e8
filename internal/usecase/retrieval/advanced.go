package retrieval

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/filter"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	"github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

// overFetchFactor multiplies topK for the provider request so client-side filters
// have candidates to drop. Callers must still tolerate fewer than topK results.
const overFetchFactor = 2

// Criteria are the advanced search options. Zero values disable a criterion.
type Criteria struct {
	Type             string   `json:"type,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	MaxDuration      float64  `json:"duration,omitempty"`
	Frameworks       []string `json:"frameworks,omitempty"`
	ExcludeCompleted bool     `json:"excludeCompleted,omitempty"`
	UserID           string   `json:"userId,omitempty"`
}

// AdvancedSearch pushes type and difficulty down to the provider, over-fetches
// 2*topK candidates, then applies in order: duration ceiling, framework membership
// and completed-practice exclusion. The result is truncated to topK.
func (s *Service) AdvancedSearch(
	ctx context.Context, query string, criteria Criteria, topK int,
) ([]result.Result, error) {
	start := time.Now()
	out, err := s.advancedSearch(ctx, query, criteria, topK)
	s.observe("advanced", start, len(out), err)
	return out, err
}

func (s *Service) advancedSearch(
	ctx context.Context, query string, criteria Criteria, topK int,
) ([]result.Result, error) {
	if query == "" {
		return nil, domain.Invalidf("query is required")
	}
	if criteria.MaxDuration < 0 {
		return nil, domain.Invalidf("duration must not be negative")
	}
	topK, err := rag.NormalizeTopK(topK)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedText(ctx, query)
	if err != nil {
		return nil, err
	}

	expr := filter.Expression{}
	if criteria.Type != "" {
		expr = expr.With(filter.MustMatch(result.KeyType, criteria.Type))
	}
	if criteria.Difficulty != "" {
		expr = expr.With(filter.MustMatch(result.KeyDifficulty, criteria.Difficulty))
	}

	candidates, err := s.query(ctx, vec, topK*overFetchFactor, expr)
	if err != nil {
		return nil, fmt.Errorf("advanced search: %w", err)
	}

	kept := FilterByDuration(candidates, criteria.MaxDuration)
	kept = FilterByFrameworks(kept, criteria.Frameworks)

	if criteria.ExcludeCompleted && criteria.UserID != "" {
		completed, err := s.completedPractices(ctx, criteria.UserID)
		if err != nil {
			return nil, err
		}
		kept = slices.DeleteFunc(kept, func(r result.Result) bool {
			_, done := completed[r.ID()]
			return done
		})
	}

	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept, nil
}

// FilterByDuration keeps results whose duration is at most maxDuration.
// Results without duration metadata always pass; a non-positive maxDuration disables the filter.
func FilterByDuration(in []result.Result, maxDuration float64) []result.Result {
	if maxDuration <= 0 {
		return in
	}
	out := make([]result.Result, 0, len(in))
	for i := range in {
		if d, ok := in[i].Duration(); ok && d > maxDuration {
			continue
		}
		out = append(out, in[i])
	}
	return out
}

// FilterByFrameworks keeps results sharing at least one framework with want.
// An empty want disables the filter.
func FilterByFrameworks(in []result.Result, want []string) []result.Result {
	if len(want) == 0 {
		return in
	}
	out := make([]result.Result, 0, len(in))
	for i := range in {
		if slices.ContainsFunc(in[i].Frameworks(), func(f string) bool { return slices.Contains(want, f) }) {
			out = append(out, in[i])
		}
	}
	return out
}

func (s *Service) completedPractices(ctx context.Context, userID string) (map[string]struct{}, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	sessions, err := s.sessions.ListByUserAndType(sctx, userID, session.TypePractice)
	if err != nil {
		return nil, fmt.Errorf("completed practices: %w", err)
	}
	set := make(map[string]struct{}, len(sessions))
	for i := range sessions {
		if id := sessions[i].PracticeID(); id != "" {
			set[id] = struct{}{}
		}
	}
	return set, nil
}
