package search

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// DefaultMinSimilarity is the cosine similarity below which candidates are discarded.
const DefaultMinSimilarity = 0.5

// semanticSearcher scores accessible template vectors against the query embedding.
// Scoring is a linear scan over the candidate set.
type semanticSearcher struct {
	embed         Embedder
	docs          DocumentStore
	minSimilarity float64
	logger        *zap.Logger
}

func (s *semanticSearcher) search(
	ctx context.Context, query string, pred access.Predicate, offset, limit int,
) (ranked.Page, error) {
	start := time.Now()

	if s.embed == nil {
		metrics.SearchDegradationsTotal.WithLabelValues("semantic", "embedding_disabled").Inc()
		s.logger.Debug("No embedder configured, semantic branch returns no results")
		return ranked.Page{}, nil
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ranked.Page{}, ctxErr
		}
		metrics.SearchDegradationsTotal.WithLabelValues("semantic", "embedding_error").Inc()
		s.logger.Warn("Query embedding failed, semantic branch returns no results",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ranked.Page{}, nil
	}

	candidates, err := s.docs.Candidates(ctx, pred)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ranked.Page{}, ctxErr
		}
		metrics.SearchDegradationsTotal.WithLabelValues("semantic", "store_error").Inc()
		s.logger.Warn("Candidate fetch failed, semantic branch returns no results",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ranked.Page{}, nil
	}

	type scored struct {
		c   lookup.Candidate
		sim float64
	}
	kept := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			continue
		}
		sim := cosineSimilarity(emb.Embedding, c.Vector)
		if sim < s.minSimilarity {
			continue
		}
		kept = append(kept, scored{c: c, sim: sim})
	}

	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.sim != b.sim {
			return a.sim > b.sim
		}
		if !a.c.CreatedAt.Equal(b.c.CreatedAt) {
			return a.c.CreatedAt.After(b.c.CreatedAt)
		}
		return a.c.ID < b.c.ID
	})

	all := make(ranked.List, len(kept))
	for i, k := range kept {
		all[i] = ranked.Hit{ID: k.c.ID, Score: k.sim}
	}

	s.logger.Debug("Semantic branch scored candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(kept)),
		zap.Duration("duration", time.Since(start)),
	)

	return ranked.Page{Hits: all.Window(offset, limit), Total: len(all)}, nil
}

// cosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either norm is zero or dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
