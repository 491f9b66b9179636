package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// DefaultTimeout bounds a single embedding HTTP call when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Embedder embeds search queries through an OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     logger,
	}
}

// Embed implements domain.Embedder and records transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "canceled").Inc()
			return domain.EmbeddingResult{}, ctxErr
		}
		mapped, reason := parseAPIError(err)
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, reason).Inc()
		e.logger.Debug("embedding API call failed", zap.String("reason", reason), zap.Error(err))
		return domain.EmbeddingResult{}, mapped
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()

	promptTokens := resp.Usage.PromptTokens
	totalTokens := resp.Usage.TotalTokens
	if totalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(promptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(totalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError maps a client error to a domain sentinel and a metrics reason.
// 429 maps to ErrRateLimited, everything else to ErrEmbeddingProviderError.
func parseAPIError(err error) (error, string) {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		wrap, reason := classifyStatus(reqErr.HTTPStatusCode)
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap), reason
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		wrap, reason := classifyStatus(apiErr.HTTPStatusCode)
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap), reason
	}

	return fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbeddingProviderError, err), "transport"
}

func classifyStatus(code int) (error, string) {
	if code == http.StatusTooManyRequests {
		return domain.ErrRateLimited, "rate_limited"
	}
	return domain.ErrEmbeddingProviderError, "api_error"
}

// extractDetail reads the "detail" field some OpenAI-compatible providers use for errors.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
