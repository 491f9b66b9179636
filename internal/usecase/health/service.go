package health

import (
	"context"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search still answers but with a reduced strategy set.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckFallback indicates full-text search is served by substring matching.
	CheckFallback CheckResult = "fallback"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase  = "database"
	ComponentTextIndex = "text_index"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexProbe
	embedding EmbeddingChecker
	logger    *zap.Logger
}

// New creates a Service. index and embedding can be nil.
func New(db DBPinger, index IndexProbe, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, index: index, embedding: embedding, logger: logger}
}

// Check runs health checks against all components.
// A database failure is fatal; index or embedding problems only degrade search.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("health: database ping failed", zap.Error(err))
		checks[ComponentDatabase] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks[ComponentDatabase] = CheckOK

	if s.index != nil {
		checks[ComponentTextIndex] = s.checkIndex(ctx)
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			s.logger.Warn("health: embedding provider check failed", zap.Error(err))
			checks[ComponentEmbedding] = CheckError
		} else {
			checks[ComponentEmbedding] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) checkIndex(ctx context.Context) CheckResult {
	ready, err := s.index.IndexReady(ctx)
	if err != nil {
		s.logger.Warn("health: text index probe failed", zap.Error(err))
		return CheckError
	}
	if !ready {
		return CheckFallback
	}
	return CheckOK
}
