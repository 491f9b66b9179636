package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// Search tuning defaults.
const (
	DefaultHybridWindow = 100
	DefaultSnippetWords = 25
)

// Config tunes ranking behavior.
type Config struct {
	RRFK int
	// MinSimilarity is the semantic cutoff; nil selects DefaultMinSimilarity and an explicit 0 is honored.
	MinSimilarity *float64
	// HybridWindow is how many candidates each branch contributes before fusion.
	HybridWindow int
	SnippetWords int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	ms := DefaultMinSimilarity
	return Config{
		RRFK:          DefaultRRFK,
		MinSimilarity: &ms,
		HybridWindow:  DefaultHybridWindow,
		SnippetWords:  DefaultSnippetWords,
	}
}

// Service dispatches template searches across keyword, full-text, semantic, and hybrid modes.
// Collaborator failures degrade a branch to an empty contribution; only cancellation is returned as an error.
type Service struct {
	fulltext *fullTextSearcher
	semantic *semanticSearcher
	docs     DocumentStore
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. Zero or nil config fields take their defaults.
func New(index RankedTextSearch, docs DocumentStore, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.RRFK <= 0 {
		cfg.RRFK = def.RRFK
	}
	if cfg.MinSimilarity == nil {
		cfg.MinSimilarity = def.MinSimilarity
	}
	if cfg.HybridWindow <= 0 {
		cfg.HybridWindow = def.HybridWindow
	}
	if cfg.SnippetWords <= 0 {
		cfg.SnippetWords = def.SnippetWords
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		fulltext: &fullTextSearcher{
			index:        index,
			docs:         docs,
			snippetWords: cfg.SnippetWords,
			logger:       logger.With(zap.String("branch", "fulltext")),
		},
		semantic: &semanticSearcher{
			embed:         embed,
			docs:          docs,
			minSimilarity: *cfg.MinSimilarity,
			logger:        logger.With(zap.String("branch", "semantic")),
		},
		docs:   docs,
		cfg:    cfg,
		logger: logger,
	}
}

// Search runs one query and returns a hydrated page of results.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()
	m := req.Mode()

	metrics.SearchRequestsTotal.WithLabelValues(string(m)).Inc()
	defer func() {
		metrics.SearchDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(req.Query()) == "" {
		return result.NewResponse(nil, 0, req.Query(), m, req.Filters(), time.Since(start)), nil
	}

	pred := access.Build(req.RequesterID(), req.IncludeShared(), req.Filters())

	var (
		page       ranked.Page
		breakdowns map[string]result.Breakdown
		err        error
	)
	switch m {
	case mode.Keyword:
		page, err = s.searchKeyword(ctx, req.Query(), pred, req.Offset(), req.Limit())
	case mode.Semantic:
		page, err = s.semantic.search(ctx, req.Query(), pred, req.Offset(), req.Limit())
	case mode.Hybrid:
		page, breakdowns, err = s.searchHybrid(ctx, req.Query(), pred, req.Offset(), req.Limit())
	default:
		m = mode.FullText
		page, err = s.fulltext.search(ctx, req.Query(), pred, req.Offset(), req.Limit())
	}
	if err != nil {
		return result.Response{}, err
	}

	results, err := s.assemble(ctx, page.Hits, breakdowns)
	if err != nil {
		return result.Response{}, err
	}

	metrics.SearchResultsReturned.WithLabelValues(string(m)).Observe(float64(len(results)))
	duration := time.Since(start)
	s.logger.Debug("Search completed",
		zap.String("mode", string(m)),
		zap.String("requester_id", req.RequesterID()),
		zap.Int("results", len(results)),
		zap.Int("total", page.Total),
		zap.Duration("duration", duration),
	)

	return result.NewResponse(results, page.Total, req.Query(), m, req.Filters(), duration), nil
}

// searchHybrid runs full-text and semantic branches concurrently over a widened window,
// fuses them via RRF, then applies the caller's window. Full-text is passed first, so it
// wins exact ties. The total is the fused union size within the window.
func (s *Service) searchHybrid(
	ctx context.Context, query string, pred access.Predicate, offset, limit int,
) (ranked.Page, map[string]result.Breakdown, error) {
	window := s.cfg.HybridWindow
	var ftPage, semPage ranked.Page

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.fulltext.search(gctx, query, pred, 0, window)
		if err != nil {
			return err
		}
		ftPage = p
		return nil
	})
	g.Go(func() error {
		p, err := s.semantic.search(gctx, query, pred, 0, window)
		if err != nil {
			return err
		}
		semPage = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return ranked.Page{}, nil, err
	}
	if err := ctx.Err(); err != nil {
		return ranked.Page{}, nil, err
	}

	fused := fuseRRF(s.cfg.RRFK, ftPage.Hits, semPage.Hits)
	pageHits := fused.Window(offset, limit)

	ftScores := ftPage.Hits.Scores()
	semScores := semPage.Hits.Scores()
	breakdowns := make(map[string]result.Breakdown, len(pageHits))
	for _, h := range pageHits {
		var b result.Breakdown
		if v, ok := ftScores[h.ID]; ok {
			b.FullText = &v
		}
		if v, ok := semScores[h.ID]; ok {
			b.Semantic = &v
		}
		breakdowns[h.ID] = b
	}

	return ranked.Page{Hits: pageHits, Total: len(fused)}, breakdowns, nil
}
