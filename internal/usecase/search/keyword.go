package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// searchKeyword matches the query as a literal, case-insensitive substring of the title.
// No ranking engine is involved: hits are ordered by recency and scored by position.
func (s *Service) searchKeyword(
	ctx context.Context, query string, pred access.Predicate, offset, limit int,
) (ranked.Page, error) {
	ids, total, err := s.docs.FindSubstring(ctx, lookup.SubstringQuery{
		Needle:    strings.TrimSpace(query),
		TitleOnly: true,
		Predicate: pred,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ranked.Page{}, ctxErr
		}
		metrics.SearchDegradationsTotal.WithLabelValues("keyword", "store_error").Inc()
		s.logger.Warn("Keyword search failed", zap.Error(err))
		return ranked.Page{}, nil
	}
	return ordinalPage(ids, offset, total), nil
}
