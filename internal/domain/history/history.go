// Package history folds a user's session log into the UserHistory view.
package history

import (
	"slices"
	"sort"

	"github.com/kailas-cloud/ilpcoach/internal/domain/session"
)

// Assessment framework names recognized in framework_assessment sessions.
const (
	FrameworkAttachment = "Attachment"
	FrameworkKegan      = "Kegan"
)

// Preferences are the user's practice configuration choices.
type Preferences struct {
	PreferredDuration   string   `json:"preferredDuration,omitempty"`
	PreferredModalities []string `json:"preferredModalities,omitempty"`
	PreferredFrameworks []string `json:"preferredFrameworks,omitempty"`
	FocusAreas          []string `json:"focusAreas,omitempty"`
}

// UserHistory is a derived view over one user's sessions. It is rebuilt per call.
type UserHistory struct {
	CompletedPractices []string    `json:"completedPractices"`
	CurrentStack       []string    `json:"currentStack"`
	Preferences        Preferences `json:"preferences"`
	Biases             []string    `json:"biases"`
	AttachmentStyle    string      `json:"attachmentStyle"`
	DevelopmentalStage string      `json:"developmentalStage"`
}

// Build folds sessions into a UserHistory.
// Sessions are ordered by ascending CompletedAt first (stable for equal timestamps),
// so for single-valued fields the most recently completed session wins.
// The input slice is not modified.
func Build(sessions []session.Session) UserHistory {
	ordered := slices.Clone(sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	h := UserHistory{
		CompletedPractices: []string{},
		CurrentStack:       []string{},
		Biases:             []string{},
	}
	for i := range ordered {
		apply(&h, &ordered[i])
	}
	return h
}

func apply(h *UserHistory, s *session.Session) {
	switch s.Type {
	case session.TypePractice:
		if id := s.PracticeID(); id != "" {
			h.CompletedPractices = appendUnique(h.CompletedPractices, id)
		}
	case session.TypeBiasDetective:
		for _, b := range s.Biases() {
			h.Biases = appendUnique(h.Biases, b)
		}
	case session.TypeFrameworkAssessment:
		switch s.Framework() {
		case FrameworkAttachment:
			h.AttachmentStyle = s.Result()
		case FrameworkKegan:
			h.DevelopmentalStage = s.Result()
		}
	case session.TypeAttachmentAssessment:
		if r := s.Result(); r != "" {
			h.AttachmentStyle = r
		}
	case session.TypeKeganAssessment:
		if r := s.Result(); r != "" {
			h.DevelopmentalStage = r
		}
	case session.TypeStackUpdate:
		h.CurrentStack = slices.Clone(s.Strings(session.ContentStack))
		if h.CurrentStack == nil {
			h.CurrentStack = []string{}
		}
	case session.TypePreferences:
		h.Preferences = Preferences{
			PreferredDuration:   s.String("preferredDuration"),
			PreferredModalities: s.Strings("preferredModalities"),
			PreferredFrameworks: s.Strings("preferredFrameworks"),
			FocusAreas:          s.Strings("focusAreas"),
		}
	}
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

// CompletedSet returns the completed practice IDs as a set.
func (h *UserHistory) CompletedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(h.CompletedPractices))
	for _, id := range h.CompletedPractices {
		set[id] = struct{}{}
	}
	return set
}
