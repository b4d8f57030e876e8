package recommendation

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/domain/rag"
	"github.com/kailas-cloud/ilpcoach/internal/domain/search/result"
)

type mockRetriever struct {
	rc    rag.Context
	err   error
	calls int
}

func (m *mockRetriever) RetrieveContext(_ context.Context, req rag.Request) (rag.Context, error) {
	m.calls++
	if m.err != nil {
		return rag.Context{}, m.err
	}
	rc := m.rc
	rc.UserID = req.UserID()
	return rc, nil
}

type mockGenerator struct {
	text   string
	err    error
	prompt string
	opts   domain.GenerateOptions
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	m.prompt = prompt
	m.opts = opts
	return m.text, m.err
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
}

func practice(id, title string, score float64, md map[string]any) result.Result {
	m := map[string]any{result.KeyType: "practice", result.KeyTitle: title}
	for k, v := range md {
		m[k] = v
	}
	return result.New(id, score, m)
}
