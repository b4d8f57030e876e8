package ilpcoach

import (
	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/history"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
	"github.com/kailas-cloud/ilpcoach/internal/usecase/retrieval"
)

type (
	// Item is a practice or framework definition.
	Item = domcat.Item
	// CatalogStats reports document and vector counts.
	CatalogStats = domcat.Stats
	// Result is a single similarity search hit.
	Result = result.Result
	// Criteria are the advanced search options.
	Criteria = retrieval.Criteria
	// RAGContext is everything retrieved for one request.
	RAGContext = rag.Context
	// UserHistory is the profile folded from a user's sessions.
	UserHistory = history.UserHistory
	// Session is one recorded user interaction.
	Session = domsess.Session
	// SessionType classifies sessions.
	SessionType = domsess.Type
	// Recommendation is one explained practice suggestion.
	Recommendation = domrec.Recommendation
	// RecommendationResponse is the ranked synthesis result.
	RecommendationResponse = domrec.Response
	// Explanation is the stored rationale of a recommendation.
	Explanation = explanation.Entry
	// Progress reports catalog upsert advancement.
	Progress = vector.Progress
)

// Catalog item kinds.
const (
	KindPractice  = domcat.KindPractice
	KindFramework = domcat.KindFramework
)

// Session types understood by history folding.
const (
	SessionPractice             = domsess.TypePractice
	SessionBiasDetective        = domsess.TypeBiasDetective
	SessionFrameworkAssessment  = domsess.TypeFrameworkAssessment
	SessionPreferences          = domsess.TypePreferences
	SessionStackUpdate          = domsess.TypeStackUpdate
	SessionKeganAssessment      = domsess.TypeKeganAssessment
	SessionAttachmentAssessment = domsess.TypeAttachmentAssessment
	SessionReflection           = domsess.TypeReflection
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"/"unconfigured"
}
