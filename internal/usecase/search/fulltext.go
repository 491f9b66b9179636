package search

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// MaxTerms caps the number of query terms sent to the text index.
const MaxTerms = 32

// fullTextSearcher queries the ranked text index and falls back to substring matching
// over title and body while the index is unavailable.
type fullTextSearcher struct {
	index        RankedTextSearch
	docs         DocumentStore
	snippetWords int
	logger       *zap.Logger
}

func (f *fullTextSearcher) search(
	ctx context.Context, query string, pred access.Predicate, offset, limit int,
) (ranked.Page, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return ranked.Page{}, nil
	}

	start := time.Now()
	page, err := f.index.SearchText(ctx, lookup.TextQuery{
		Terms:        terms,
		Predicate:    pred,
		Offset:       offset,
		Limit:        limit,
		SnippetWords: f.snippetWords,
	})
	if err == nil {
		return page, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ranked.Page{}, ctxErr
	}

	if !errors.Is(err, domain.ErrIndexUnavailable) {
		metrics.SearchDegradationsTotal.WithLabelValues("fulltext", "index_error").Inc()
		f.logger.Warn("Full-text index query failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ranked.Page{}, nil
	}

	metrics.SearchDegradationsTotal.WithLabelValues("fulltext", "index_unavailable").Inc()
	f.logger.Info("Full-text index unavailable, using substring fallback", zap.Error(err))

	ids, total, err := f.docs.FindSubstring(ctx, lookup.SubstringQuery{
		Needle:    strings.TrimSpace(query),
		Predicate: pred,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ranked.Page{}, ctxErr
		}
		metrics.SearchDegradationsTotal.WithLabelValues("fulltext", "store_error").Inc()
		f.logger.Warn("Substring fallback failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ranked.Page{}, nil
	}

	return ordinalPage(ids, offset, total), nil
}

// ordinalPage scores a recency-ordered id window with synthetic descending ordinals.
// Scores are positional only and not comparable with index relevance scores.
func ordinalPage(ids []string, offset, total int) ranked.Page {
	hits := make(ranked.List, len(ids))
	for i, id := range ids {
		hits[i] = ranked.Hit{ID: id, Score: ranked.Ordinal(offset + i)}
	}
	return ranked.Page{Hits: hits, Total: total}
}

// tokenize splits a query into lower-cased alphanumeric terms, dropping duplicates.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return nil
	}

	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
		if len(terms) == MaxTerms {
			break
		}
	}
	return terms
}
