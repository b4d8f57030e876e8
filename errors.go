package ilpcoach

import "github.com/kailas-cloud/ilpcoach/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrAlreadyExists          = domain.ErrAlreadyExists
	ErrUnknownPractice        = domain.ErrUnknownPractice
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrTextGenerationError    = domain.ErrTextGenerationError
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrMissingSetting         = domain.ErrMissingSetting
)
