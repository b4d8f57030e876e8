package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ilpcoach/internal/domain"
	"github.com/kailas-cloud/ilpcoach/internal/metrics"
)

// Generator is a text generation provider over the chat completions API.
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text generator.
func NewGenerator(cfg *Config) (*Generator, error) {
	clientCfg, err := cfg.clientConfig()
	if err != nil {
		return nil, fmt.Errorf("generation provider: %w", err)
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.logger(),
	}, nil
}

// Generate implements domain.TextGenerator. opts.Model overrides the configured model.
func (g *Generator) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	model := g.model
	if opts.Model != "" {
		model = opts.Model
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(model, "error").Inc()
		g.logger.Warn("chat completion failed", zap.String("model", model), zap.Error(err))
		return "", parseAPIError("generation", domain.ErrTextGenerationError, err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrTextGenerationError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(model, "success").Inc()
	domain.UsageFrom(ctx).AddGeneration(resp.Usage.TotalTokens)
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return resp.Choices[0].Message.Content, nil
}
