package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/config"
	"github.com/kailas-cloud/promptdex/internal/domain"
	openaiEmb "github.com/kailas-cloud/promptdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/promptdex/internal/usecase/embedding"
)

// NewEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Instruction.
// It returns nil values when no embedding model is configured.
func NewEmbedder(
	cfg config.EmbeddingConfig, instruction string, logger *zap.Logger,
) (domain.Embedder, domain.HealthChecker) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Provider, cfg.Model, cfg.Dimensions, logger,
	)

	// outermost, so the instrumented layer sees the final text
	if instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder, base
}
