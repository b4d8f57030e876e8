package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

func chatServer(t *testing.T, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gen-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}))
}

func TestGenerator_Generate(t *testing.T) {
	var req chatRequest
	server := chatServer(t, "Try box breathing.", &req)
	defer server.Close()

	gen, err := NewGenerator(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "gen-model"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	out, err := gen.Generate(context.Background(), "recommend something", domain.GenerateOptions{
		System:      "You are a coach.",
		MaxTokens:   256,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Try box breathing." {
		t.Errorf("output = %q", out)
	}

	if req.Model != "gen-model" {
		t.Errorf("model = %q, want gen-model", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "recommend something" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if req.MaxTokens != 256 {
		t.Errorf("max_tokens = %d", req.MaxTokens)
	}
}

func TestGenerator_ModelOverride(t *testing.T) {
	var req chatRequest
	server := chatServer(t, "ok", &req)
	defer server.Close()

	gen, err := NewGenerator(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "gen-model"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	if _, err := gen.Generate(context.Background(), "p", domain.GenerateOptions{Model: "other"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if req.Model != "other" {
		t.Errorf("model = %q, want other", req.Model)
	}
	if len(req.Messages) != 1 {
		t.Errorf("expected only the user message without a system prompt, got %d", len(req.Messages))
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream down", "type": "server_error"},
		})
	}))
	defer server.Close()

	gen, err := NewGenerator(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "gen-model"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background(), "p", domain.GenerateOptions{})
	if !errors.Is(err, domain.ErrTextGenerationError) {
		t.Fatalf("expected ErrTextGenerationError, got %v", err)
	}
}

func TestGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	gen, err := NewGenerator(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "gen-model"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background(), "p", domain.GenerateOptions{})
	if !errors.Is(err, domain.ErrTextGenerationError) {
		t.Fatalf("expected ErrTextGenerationError, got %v", err)
	}
}

func TestNewGenerator_MissingModel(t *testing.T) {
	_, err := NewGenerator(&Config{APIKey: "k"})
	var mse *domain.MissingSettingError
	if !errors.As(err, &mse) || mse.Setting != "model" {
		t.Fatalf("expected missing model setting, got %v", err)
	}
}

func TestGenerator_RecordsRequestUsage(t *testing.T) {
	server := chatServer(t, "ok", nil)
	defer server.Close()

	gen, err := NewGenerator(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "gen-model"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	ctx, usage := domain.WithUsage(context.Background())
	if _, err := gen.Generate(ctx, "prompt", domain.GenerateOptions{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := usage.Report(); !got.Generated || got.GenerationTokens != 20 {
		t.Errorf("usage = %+v, want 20 generation tokens", got)
	}
}
