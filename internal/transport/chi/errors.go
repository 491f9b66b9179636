package chi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
)

// ErrorCode is the machine-readable code in an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNotFound               ErrorCode = "not_found"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler surfaces the full message for ErrInvalidQuery; it only describes caller input.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	return true
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidQuery,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)

	// The client is gone or the timeout middleware owns the response.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Debug("request ended before completion", zap.Error(err))
		return
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
