package chi

import (
	"context"

	domcat "github.com/kailas-cloud/ilpcoach/internal/domain/catalog"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	domrec "github.com/kailas-cloud/ilpcoach/internal/domain/recommendation"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
	domsess "github.com/kailas-cloud/ilpcoach/internal/domain/session"
	"github.com/kailas-cloud/ilpcoach/internal/domain/vector"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
	healthuc "github.com/kailas-cloud/ilpcoach/internal/usecase/health"
	"github.com/kailas-cloud/ilpcoach/internal/usecase/retrieval"
)

// Retriever serves the retrieval endpoints.
type Retriever interface {
	RetrieveContext(ctx context.Context, req rag.Request) (rag.Context, error)
	AdvancedSearch(ctx context.Context, query string, criteria retrieval.Criteria, topK int) ([]result.Result, error)
	RetrieveSimilarPractices(ctx context.Context, practiceID string, topK int) ([]result.Result, error)
	FindPracticesByCategory(ctx context.Context, category, query string, topK int) ([]result.Result, error)
}

// Recommender serves recommendation synthesis and explanation lookup.
type Recommender interface {
	Generate(ctx context.Context, req rag.Request) (domrec.Response, error)
	Explanation(id string) (explanation.Entry, error)
}

// Sessions records and lists user sessions.
type Sessions interface {
	Record(ctx context.Context, sess domsess.Session) (domsess.Session, error)
	List(ctx context.Context, userID string) ([]domsess.Session, error)
}

// Catalog ingests practices and frameworks.
type Catalog interface {
	AddPractices(ctx context.Context, items []domcat.Item, onProgress vector.ProgressFunc) ([]string, error)
	AddFrameworks(ctx context.Context, items []domcat.Item, onProgress vector.ProgressFunc) ([]string, error)
	Stats(ctx context.Context) (domcat.Stats, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
