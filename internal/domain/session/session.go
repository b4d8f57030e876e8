package session

import (
	"fmt"
	"time"
)

// Type is the kind of interaction a session records.
type Type string

// Known session types. Unknown types are stored but ignored by history folding.
const (
	TypePractice             Type = "practice"
	TypeBiasDetective        Type = "bias_detective"
	TypeFrameworkAssessment  Type = "framework_assessment"
	TypePreferences          Type = "preferences"
	TypeStackUpdate          Type = "stack_update"
	TypeIFSSession           Type = "ifs_session"
	TypeSubjectObject        Type = "subject_object"
	TypeThreeTwoOne          Type = "three_two_one"
	TypePerspectiveShifter   Type = "perspective_shifter"
	TypePolarityMapper       Type = "polarity_mapper"
	TypeKeganAssessment      Type = "kegan_assessment"
	TypeAttachmentAssessment Type = "attachment_assessment"
	TypeReflection           Type = "reflection"
)

// Content keys read by history folding.
const (
	ContentPracticeID = "practiceId"
	ContentBiases     = "biases"
	ContentFramework  = "framework"
	ContentResult     = "result"
	ContentStack      = "stack"
)

// Session is one immutable past interaction.
type Session struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Type        Type           `json:"type"`
	Content     map[string]any `json:"content,omitempty"`
	Insights    []string       `json:"insights,omitempty"`
	CompletedAt time.Time      `json:"completedAt"`
	Embedding   []float32      `json:"embedding,omitempty"`
}

// Validate checks the fields a caller must supply.
func (s *Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}

// PracticeID returns the completed practice for practice sessions.
func (s *Session) PracticeID() string {
	return s.String(ContentPracticeID)
}

// Biases returns the bias labels identified by a bias_detective session.
func (s *Session) Biases() []string {
	return s.Strings(ContentBiases)
}

// Framework returns the assessed framework name.
func (s *Session) Framework() string {
	return s.String(ContentFramework)
}

// Result returns the assessment outcome.
func (s *Session) Result() string {
	return s.String(ContentResult)
}

// String returns a string content field, or "" when missing.
func (s *Session) String(key string) string {
	v, _ := s.Content[key].(string)
	return v
}

// Strings returns a string list content field.
func (s *Session) Strings(key string) []string {
	switch v := s.Content[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
