package recommendation

import (
	"context"

	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	"github.com/kailas-cloud/ilpcoach/internal/repository/explanation"
)

// Retriever produces the retrieval context for a request.
type Retriever interface {
	RetrieveContext(ctx context.Context, req rag.Request) (rag.Context, error)
}

// ExplanationStore keeps recommendation rationales by recommendation ID.
type ExplanationStore interface {
	Put(e explanation.Entry)
	Get(id string) (explanation.Entry, bool)
}
