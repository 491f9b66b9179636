package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed search query or filter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals that the embedding provider throttled the request.
	ErrRateLimited = errors.New("rate limited")
	// ErrIndexUnavailable signals that the ranked text index has not been built.
	ErrIndexUnavailable = errors.New("ranked text index unavailable")
)
