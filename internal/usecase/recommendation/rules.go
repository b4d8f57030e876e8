package recommendation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ilpcoach/internal/domain/history"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
)

// MaxRecommendations bounds the number of recommendations per response.
const MaxRecommendations = 5

const (
	// experiencedThreshold is the completed practice count above which a practice
	// is framed as the next logical step.
	experiencedThreshold = 5
	// longPracticeMinutes is the duration above which a shorter start is suggested.
	longPracticeMinutes = 20
)

// Reasoning clauses, appended in this order.
const (
	ClauseHistory    = "It builds on the %d practices you have already completed."
	ClauseBiases     = "It helps address the biases you identified: %s."
	ClauseStage      = "It is aligned with your developmental stage (%s)."
	ClauseNextStep   = "Given your established practice, it is a natural next step."
	ReasoningDefault = "It matches what you are looking for and is a good place to start."
)

// Personalization notes.
const (
	NoteShorterStart = "Start with a shorter 5-10 minute version and build up to the full %g minutes."
	NoteModalities   = "Adapt it to your preferred modalities: %s."
	NoteEvidence     = "Research: %s"
	NoteMorning      = "This practice is best done in the morning, before the day gets busy."
)

// BuildRecommendations maps the top retrieved practices to explained recommendations,
// keeping retrieval order. IDs are assigned by newID.
func BuildRecommendations(rc *rag.Context, newID func() string) []domrec.Recommendation {
	practices := rc.RetrievedPractices
	if len(practices) > MaxRecommendations {
		practices = practices[:MaxRecommendations]
	}

	out := make([]domrec.Recommendation, 0, len(practices))
	for i := range practices {
		p := &practices[i]
		out = append(out, domrec.Recommendation{
			ID:                   newID(),
			PracticeID:           p.ID(),
			PracticeTitle:        p.Title(),
			Reasoning:            Reasoning(&rc.UserHistory),
			RelevanceScore:       domrec.Score(p.Score()),
			PersonalizationNotes: Notes(p, &rc.UserHistory),
		})
	}
	return out
}

// Reasoning explains a recommendation from the user's history.
func Reasoning(h *history.UserHistory) string {
	var clauses []string
	if n := len(h.CompletedPractices); n > 0 {
		clauses = append(clauses, fmt.Sprintf(ClauseHistory, n))
	}
	if len(h.Biases) > 0 {
		clauses = append(clauses, fmt.Sprintf(ClauseBiases, strings.Join(h.Biases, ", ")))
	}
	if h.DevelopmentalStage != "" {
		clauses = append(clauses, fmt.Sprintf(ClauseStage, h.DevelopmentalStage))
	}
	if len(h.CompletedPractices) > experiencedThreshold {
		clauses = append(clauses, ClauseNextStep)
	}
	if len(clauses) == 0 {
		return ReasoningDefault
	}
	return strings.Join(clauses, " ")
}

// Notes builds the personalization notes for one practice. The morning note is always last.
func Notes(p *result.Result, h *history.UserHistory) []string {
	var notes []string
	if d, ok := p.Duration(); ok && d > longPracticeMinutes {
		notes = append(notes, fmt.Sprintf(NoteShorterStart, d))
	}
	if m := h.Preferences.PreferredModalities; len(m) > 0 {
		notes = append(notes, fmt.Sprintf(NoteModalities, strings.Join(m, ", ")))
	}
	if ev := p.Evidence(); len(ev) > 0 {
		notes = append(notes, fmt.Sprintf(NoteEvidence, ev[0]))
	}
	return append(notes, NoteMorning)
}
