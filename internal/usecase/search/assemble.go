package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// assemble hydrates a page of hits with template projections.
// Ids missing from the store were deleted after retrieval and are skipped.
// If the fetch itself fails the hits are returned without projections.
func (s *Service) assemble(
	ctx context.Context, hits ranked.List, breakdowns map[string]result.Breakdown,
) ([]result.Scored, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	tpls, err := s.docs.Fetch(ctx, hits.IDs())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("Hydration failed, returning results without projections",
			zap.Int("ids", len(hits)),
			zap.Error(err),
		)
	}

	byID := make(map[string]template.Template, len(tpls))
	for _, t := range tpls {
		byID[t.ID()] = t
	}

	out := make([]result.Scored, 0, len(hits))
	for _, h := range hits {
		scored := result.New(h.ID, h.Score, breakdowns[h.ID], h.Snippet)
		if err == nil {
			t, ok := byID[h.ID]
			if !ok {
				continue
			}
			scored = scored.WithTemplate(t)
		}
		out = append(out, scored)
	}
	return out, nil
}
