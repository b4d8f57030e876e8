package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a write that would replace an immutable record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownPractice signals a generated recommendation naming a practice outside the retrieved set.
	ErrUnknownPractice = errors.New("unknown practice")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTextGenerationError signals a text generation provider failure.
	ErrTextGenerationError = errors.New("text generation error")
	// ErrDimensionMismatch signals an embedding vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrMissingSetting signals a provider client constructed without a required setting.
	ErrMissingSetting = errors.New("missing setting")
)

// MissingSettingError names the configuration setting that was not provided.
type MissingSettingError struct {
	Setting string
}

func (e *MissingSettingError) Error() string {
	return fmt.Sprintf("%s: %s is required", ErrMissingSetting.Error(), e.Setting)
}

func (e *MissingSettingError) Unwrap() error { return ErrMissingSetting }

// NewMissingSetting creates a configuration error for the named setting.
func NewMissingSetting(setting string) error {
	return &MissingSettingError{Setting: setting}
}

// Invalidf formats a validation error wrapping ErrInvalidRequest.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
