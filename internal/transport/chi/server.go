// Package chi serves the template search HTTP API on a chi router.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/promptdex/internal/logger"
	"github.com/kailas-cloud/promptdex/internal/metrics"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
)

// maxBodyBytes caps POST search bodies.
const maxBodyBytes = 64 << 10

type searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server handles the search API.
type Server struct {
	search        searcher
	health        healthChecker
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search searcher, health healthChecker, limits Limits, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = request.DefaultLimit
	}
	if limits.MaxLimit <= 0 || limits.MaxLimit > request.MaxLimit {
		limits.MaxLimit = request.MaxLimit
	}
	return &Server{
		search:        search,
		health:        health,
		limits:        limits,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	APIKeys        []string
	RequestTimeout time.Duration
}

// Router builds the chi router with the middleware stack and all routes.
func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(WideEvent(s.logger))
	r.Use(JSONRecoverer(s.logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1/templates", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}
		r.Get("/search", s.SearchTemplates)
		r.Post("/search", s.SearchTemplatesBody)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// SearchTemplates handles GET /v1/templates/search.
func (s *Server) SearchTemplates(w http.ResponseWriter, r *http.Request) {
	params, err := BindSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	body := params.Body()
	s.runSearch(w, r, &body)
}

// SearchTemplatesBody handles POST /v1/templates/search.
func (s *Server) SearchTemplatesBody(w http.ResponseWriter, r *http.Request) {
	var body SearchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, &body)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, body *SearchBody) {
	req, err := s.limits.toRequest(body, r.Header.Get(RequesterHeader))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("X-Search-Duration-Ms", strconv.FormatInt(resp.DurationMs(), 10))
	writeJSON(w, http.StatusOK, NewSearchResponse(&resp))
}

// HealthCheck handles GET /health. Degraded still answers 200 since search keeps serving.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
