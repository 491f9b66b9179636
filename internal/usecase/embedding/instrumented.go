package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// InstrumentedEmbedder wraps Embedder with a dimension guard and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. dimensions <= 0 disables the dimension check.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:      inner,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Embed delegates to the inner embedder and rejects vectors of the wrong size.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.dimensions > 0 && len(result.Embedding) != p.dimensions {
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "dimension_mismatch").Inc()
		p.logger.Error("Embedding dimension mismatch",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("expected", p.dimensions),
			zap.Int("got", len(result.Embedding)),
		)
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embed: got %d dimensions, want %d: %w", len(result.Embedding), p.dimensions, domain.ErrVectorDimMismatch,
		)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
