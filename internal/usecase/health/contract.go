package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexProbe reports whether the ranked text index can serve queries.
type IndexProbe interface {
	IndexReady(ctx context.Context) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
