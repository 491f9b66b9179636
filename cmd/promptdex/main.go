package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/app"
	"github.com/kailas-cloud/promptdex/internal/config"
	logpkg "github.com/kailas-cloud/promptdex/internal/logger"
	"github.com/kailas-cloud/promptdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/promptdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/promptdex/internal/usecase/search"
	"github.com/kailas-cloud/promptdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, env, logger); err != nil {
		logger.Fatal("promptdex stopped", zap.Error(err))
	}
}

func run(cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting promptdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Registered explicitly, no init().
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ctx := context.Background()
	backend, err := app.OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	if ready, err := backend.Templates.IndexReady(ctx); err != nil {
		logger.Warn("Could not probe ranked text index", zap.Error(err))
	} else if !ready {
		logger.Warn("Ranked text index missing, full-text search will use substring matching; " +
			"run `promptdexctl index create`")
	}

	queryEmbedder, embHealth := app.NewEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, logger)
	if queryEmbedder == nil {
		logger.Warn("No embedding model configured, semantic mode returns nothing and hybrid ranks by full-text only")
	} else {
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	searchSvc := searchuc.New(backend.Index, backend.Templates, queryEmbedder, searchuc.Config{
		RRFK:          cfg.Search.RRFK,
		MinSimilarity: cfg.Search.MinSimilarity,
		HybridWindow:  cfg.Search.HybridWindow,
		SnippetWords:  cfg.Search.SnippetWords,
	}, logger)

	// Pass a nil interface, not a typed nil, when embedding is off.
	var embChecker healthuc.EmbeddingChecker
	if embHealth != nil {
		embChecker = embHealth
	}
	healthSvc := healthuc.New(backend, backend.Templates, embChecker, logger)

	server := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.Limits{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: server.Router(chiTransport.RouterOptions{
			APIKeys:        cfg.Auth.APIKeys,
			RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
		}),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
