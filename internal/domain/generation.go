package domain

import "context"

// GenerateOptions tunes a single text generation call.
type GenerateOptions struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature float32
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
