package recommendation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
)

const systemPrompt = "You are an Integral Life Practice coach. " +
	"Recommend only practices from the provided list and answer with JSON only."

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type llmResponse struct {
	Recommendations []llmRecommendation `json:"recommendations"`
}

type llmRecommendation struct {
	PracticeID           string   `json:"practiceId"`
	PracticeTitle        string   `json:"practiceTitle"`
	Reasoning            string   `json:"reasoning"`
	PersonalizationNotes []string `json:"personalizationNotes"`
}

// BuildPrompt renders the retrieval context into the generation prompt.
func BuildPrompt(query string, rc *rag.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User need: %s\n\n", query)

	h := &rc.UserHistory
	b.WriteString("User profile:\n")
	fmt.Fprintf(&b, "- Completed practices: %s\n", listOrNone(h.CompletedPractices))
	fmt.Fprintf(&b, "- Current stack: %s\n", listOrNone(h.CurrentStack))
	fmt.Fprintf(&b, "- Identified biases: %s\n", listOrNone(h.Biases))
	fmt.Fprintf(&b, "- Attachment style: %s\n", valueOrNone(h.AttachmentStyle))
	fmt.Fprintf(&b, "- Developmental stage: %s\n", valueOrNone(h.DevelopmentalStage))
	fmt.Fprintf(&b, "- Preferred modalities: %s\n\n", listOrNone(h.Preferences.PreferredModalities))

	b.WriteString("Candidate practices:\n")
	for i := range rc.RetrievedPractices {
		p := &rc.RetrievedPractices[i]
		fmt.Fprintf(&b, "- id=%s title=%q category=%s difficulty=%s", p.ID(), p.Title(), p.Category(), p.Difficulty())
		if d, ok := p.Duration(); ok {
			fmt.Fprintf(&b, " duration=%gmin", d)
		}
		if desc := p.Description(); desc != "" {
			fmt.Fprintf(&b, "\n  %s", desc)
		}
		b.WriteString("\n")
	}

	if len(rc.RetrievedFrameworks) > 0 {
		b.WriteString("\nRelevant frameworks:\n")
		for i := range rc.RetrievedFrameworks {
			f := &rc.RetrievedFrameworks[i]
			fmt.Fprintf(&b, "- %s (%s)\n", f.Title(), valueOrNone(f.FrameworkType()))
		}
	}

	if len(rc.RelevantInsights) > 0 {
		b.WriteString("\nInsights:\n")
		for _, in := range rc.RelevantInsights {
			fmt.Fprintf(&b, "- %s\n", in)
		}
	}

	fmt.Fprintf(&b, "\nRecommend up to %d practices from the candidate list. Respond with a JSON object:\n", MaxRecommendations)
	b.WriteString(`{"recommendations":[{"practiceId":"<id>","practiceTitle":"<title>",` +
		`"reasoning":"<why it fits this user>","personalizationNotes":["<note>"]}]}`)
	b.WriteString("\n")
	return b.String()
}

// ParseRecommendations extracts the first JSON block from text and maps every entry to a
// retrieved practice by ID or case-insensitive title. Entries must carry a reasoning and a
// practice reference; a reference outside the retrieved set fails with domain.ErrUnknownPractice.
func ParseRecommendations(text string, rc *rag.Context, newID func() string) ([]domrec.Recommendation, error) {
	block, ok := extractJSON(text)
	if !ok {
		return nil, fmt.Errorf("no JSON block in generated text: %w", domain.ErrTextGenerationError)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(block)))
	dec.DisallowUnknownFields()
	var parsed llmResponse
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode generated JSON: %v: %w", err, domain.ErrTextGenerationError)
	}
	if len(parsed.Recommendations) == 0 {
		return nil, fmt.Errorf("generated JSON has no recommendations: %w", domain.ErrTextGenerationError)
	}

	entries := parsed.Recommendations
	if len(entries) > MaxRecommendations {
		entries = entries[:MaxRecommendations]
	}

	out := make([]domrec.Recommendation, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Reasoning) == "" {
			return nil, fmt.Errorf("recommendation %d: missing reasoning: %w", i, domain.ErrTextGenerationError)
		}
		if e.PracticeID == "" && e.PracticeTitle == "" {
			return nil, fmt.Errorf("recommendation %d: missing practice reference: %w", i, domain.ErrTextGenerationError)
		}

		src, found := matchPractice(rc.RetrievedPractices, e.PracticeID, e.PracticeTitle)
		if !found {
			name := e.PracticeID
			if name == "" {
				name = e.PracticeTitle
			}
			return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownPractice)
		}

		notes := nonEmpty(e.PersonalizationNotes)
		if len(notes) == 0 {
			notes = []string{domrec.DefaultNote}
		}

		out = append(out, domrec.Recommendation{
			ID:                   newID(),
			PracticeID:           src.ID(),
			PracticeTitle:        src.Title(),
			Reasoning:            strings.TrimSpace(e.Reasoning),
			RelevanceScore:       domrec.Score(src.Score()),
			PersonalizationNotes: notes,
		})
	}
	return out, nil
}

func extractJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func matchPractice(practices []result.Result, id, title string) (*result.Result, bool) {
	for i := range practices {
		if id != "" && practices[i].ID() == id {
			return &practices[i], true
		}
	}
	for i := range practices {
		if title != "" && strings.EqualFold(practices[i].Title(), strings.TrimSpace(title)) {
			return &practices[i], true
		}
	}
	return nil, false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func listOrNone(v []string) string {
	if len(v) == 0 {
		return "none"
	}
	return strings.Join(v, ", ")
}

func valueOrNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
