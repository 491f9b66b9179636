package search

import (
	"context"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// RankedTextSearch is a field-weighted full-text index (title > body > tags).
// It returns an error wrapping domain.ErrIndexUnavailable when the index has not been built.
type RankedTextSearch interface {
	SearchText(ctx context.Context, q lookup.TextQuery) (ranked.Page, error)
}

// DocumentStore reads template projections under an access predicate.
type DocumentStore interface {
	Candidates(ctx context.Context, pred access.Predicate) ([]lookup.Candidate, error)
	FindSubstring(ctx context.Context, q lookup.SubstringQuery) (ids []string, total int, err error)
	Fetch(ctx context.Context, ids []string) ([]template.Template, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
