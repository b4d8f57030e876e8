// Package recommendation holds the synthesis output types.
package recommendation

import "time"

// DefaultRelevanceScore is used when the source result carries no score.
const DefaultRelevanceScore = 0.8

// DefaultNote is emitted when no personalization note applies.
const DefaultNote = "Start gently and adjust the practice to fit your day."

// Recommendation is one explained, personalized practice suggestion.
type Recommendation struct {
	ID                   string   `json:"id"`
	PracticeID           string   `json:"practiceId"`
	PracticeTitle        string   `json:"practiceTitle"`
	Reasoning            string   `json:"reasoning"`
	RelevanceScore       float64  `json:"relevanceScore"`
	PersonalizationNotes []string `json:"personalizationNotes"`
}

// Response is the ranked synthesis result for one request.
type Response struct {
	UserID          string           `json:"userId"`
	Recommendations []Recommendation `json:"recommendations"`
	Insights        []string         `json:"insights"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// Score returns s, or DefaultRelevanceScore when s is not positive.
func Score(s float64) float64 {
	if s <= 0 {
		return DefaultRelevanceScore
	}
	return s
}
