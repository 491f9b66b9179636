// Package app assembles storage backends and the embedder chain from configuration
// for the promptdex binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/config"
	dbRedis "github.com/kailas-cloud/promptdex/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/promptdex/internal/db/sqlite"
	dbValkey "github.com/kailas-cloud/promptdex/internal/db/valkey"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
	searchrepo "github.com/kailas-cloud/promptdex/internal/repository/search"
	sqliterepo "github.com/kailas-cloud/promptdex/internal/repository/sqlite"
	templaterepo "github.com/kailas-cloud/promptdex/internal/repository/template"
	searchuc "github.com/kailas-cloud/promptdex/internal/usecase/search"
)

// Templates is the template storage surface shared by the server and the CLI.
type Templates interface {
	searchuc.DocumentStore
	Upsert(ctx context.Context, t *template.Template) (bool, error)
	UpsertMany(ctx context.Context, ts []template.Template) error
	Get(ctx context.Context, id string) (template.Template, error)
	Delete(ctx context.Context, id string) error
	EnsureIndex(ctx context.Context) (bool, error)
	IndexReady(ctx context.Context) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Backend is an opened storage backend.
type Backend struct {
	Driver    string
	Templates Templates
	Index     searchuc.RankedTextSearch

	pinger  pinger
	closeFn func() error
}

// Ping checks the underlying connection.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%s ping: %w", b.Driver, err)
	}
	return nil
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	return b.closeFn()
}

// OpenBackend connects to the configured driver and waits until it answers.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to database", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return &Backend{
			Driver:    cfg.Driver,
			Templates: templaterepo.New(store),
			Index:     searchrepo.New(store),
			pinger:    store,
			closeFn:   func() error { store.Close(); return nil },
		}, nil

	case config.DriverValkey:
		store, err := dbValkey.NewStore(dbValkey.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("open valkey: %w", err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("valkey not ready: %w", err)
		}
		logger.Info("Connected to database", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		logger.Warn("Valkey has no ranked text index, full-text search uses substring matching")
		return &Backend{
			Driver:    cfg.Driver,
			Templates: templaterepo.New(store),
			Index:     searchrepo.New(store),
			pinger:    store,
			closeFn:   func() error { store.Close(); return nil },
		}, nil

	case config.DriverSQLite:
		store, err := dbSQLite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("sqlite not ready: %w", err)
		}
		logger.Info("Opened database", zap.String("driver", cfg.Driver), zap.String("path", store.Path()))
		repo := sqliterepo.New(store)
		return &Backend{
			Driver:    cfg.Driver,
			Templates: repo,
			Index:     repo,
			pinger:    store,
			closeFn:   store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
