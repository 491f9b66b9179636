package promptdex

import "github.com/kailas-cloud/promptdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
