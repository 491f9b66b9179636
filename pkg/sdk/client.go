package promptdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/app"
	"github.com/kailas-cloud/promptdex/internal/config"
	"github.com/kailas-cloud/promptdex/internal/db"
	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/promptdex/internal/usecase/search"
)

const defaultReadinessTimeoutSec = 10

// Internal interfaces for substitution in tests.
type templateStore interface {
	Upsert(ctx context.Context, t *domtpl.Template) (bool, error)
	UpsertMany(ctx context.Context, ts []domtpl.Template) error
	Get(ctx context.Context, id string) (domtpl.Template, error)
	Delete(ctx context.Context, id string) error
	EnsureIndex(ctx context.Context) (bool, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type connection interface {
	Ping(ctx context.Context) error
	Close() error
}

// Client is the promptdex SDK entry point.
type Client struct {
	conn        connection
	templates   templateStore
	searchSvc   searchUseCase
	healthSvc   healthUseCase
	docEmbedder domain.Embedder
	obs         *observer
	now         func() time.Time
}

// New opens the configured storage backend and wires the search service.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("promptdex: storage required (use WithRedis, WithValkey or WithSQLite)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backend, err := app.OpenBackend(ctx, config.DatabaseConfig{
		Driver:           cfg.driver,
		Addrs:            cfg.addrs,
		Password:         cfg.password,
		SQLitePath:       cfg.sqlitePath,
		ReadinessTimeout: defaultReadinessTimeoutSec,
	}, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("promptdex: %w", err)
	}

	return wireClient(backend, cfg, obs), nil
}

func wireClient(backend *app.Backend, cfg *clientConfig, obs *observer) *Client {
	var base domain.Embedder
	var embHealth healthuc.EmbeddingChecker
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
		if hc, ok := cfg.embedder.(healthuc.EmbeddingChecker); ok {
			embHealth = hc
		}
	}

	searchSvc := searchuc.New(backend.Index, backend.Templates, withInstruction(base, cfg.queryInstruction),
		searchuc.Config{
			RRFK:          cfg.rrfK,
			MinSimilarity: cfg.minSimilarity,
			HybridWindow:  cfg.hybridWindow,
			SnippetWords:  cfg.snippetWords,
		}, nil)

	return &Client{
		conn:        backend,
		templates:   backend.Templates,
		searchSvc:   searchSvc,
		healthSvc:   healthuc.New(backend, backend.Templates, embHealth, nil),
		docEmbedder: withInstruction(base, cfg.documentInstruction),
		obs:         obs,
		now:         time.Now,
	}
}

// Close releases all resources.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the ranked text index if it is missing and reports
// whether it was created. Backends without ranked text search return false.
func (c *Client) EnsureIndex(ctx context.Context) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	created, err = c.templates.EnsureIndex(ctx)
	if errors.Is(err, db.ErrTextSearchUnsupported) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	return created, nil
}

// Upsert stores a template and reports whether it was new. A missing ID is
// generated, a missing vector is embedded when an embedder is configured.
func (c *Client) Upsert(ctx context.Context, t Template) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upsert", start, err) }()

	tpl, err := c.prepare(ctx, t)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	created, err = c.templates.Upsert(ctx, &tpl)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return created, nil
}

// UpsertBatch stores templates in one write. Validation or embedding of any
// template failing aborts the whole batch before anything is written.
func (c *Client) UpsertBatch(ctx context.Context, ts []Template) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("upsert_batch", start, err) }()

	prepared := make([]domtpl.Template, 0, len(ts))
	for i := range ts {
		tpl, err := c.prepare(ctx, ts[i])
		if err != nil {
			return fmt.Errorf("upsert batch: template %d: %w", i, err)
		}
		prepared = append(prepared, tpl)
	}
	if err := c.templates.UpsertMany(ctx, prepared); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

// Get returns a template by ID.
func (c *Client) Get(ctx context.Context, id string) (_ Template, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err) }()

	tpl, err := c.templates.Get(ctx, id)
	if err != nil {
		return Template{}, fmt.Errorf("get: %w", err)
	}
	return fromDomainTemplate(&tpl), nil
}

// Delete removes a template by ID.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	if err = c.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Search ranks the templates visible to requesterID against query.
func (c *Client) Search(
	ctx context.Context, query, requesterID string, opts *SearchOptions,
) (_ SearchPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	if opts == nil {
		opts = &SearchOptions{}
	}
	req, err := toRequest(query, requesterID, opts)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}

	resp, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromResponse(&resp), nil
}

func (c *Client) prepare(ctx context.Context, t Template) (domtpl.Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = c.now()
	}

	tpl, err := domtpl.New(toDomainParams(&t))
	if err != nil {
		return domtpl.Template{}, err
	}
	if len(tpl.Vector()) > 0 || c.docEmbedder == nil {
		return tpl, nil
	}

	res, err := c.docEmbedder.Embed(ctx, tpl.EmbeddingText())
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("embed template %s: %w", tpl.ID(), err)
	}
	return tpl.WithVector(res.Embedding), nil
}
