package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/promptdex/internal/db"
	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
	tplrepo "github.com/kailas-cloud/promptdex/internal/repository/template"
)

// Snippet markup around matched terms.
const (
	highlightOpen   = "<b>"
	highlightClose  = "</b>"
	snippetEllipsis = "…"
)

// minPrefixLen is the shortest term expanded to a prefix query.
const minPrefixLen = 2

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SupportsTextSearch(ctx context.Context) bool
}

// Repo implements usecase/search.RankedTextSearch over the FT index.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SupportsTextSearch proxies the capability check from the store.
func (r *Repo) SupportsTextSearch(ctx context.Context) bool {
	return r.store.SupportsTextSearch(ctx)
}

// SearchText runs a prefix-AND query with the access predicate pushed into the index.
func (r *Repo) SearchText(ctx context.Context, q lookup.TextQuery) (ranked.Page, error) {
	if !r.store.SupportsTextSearch(ctx) {
		return ranked.Page{}, fmt.Errorf("search text: %w", domain.ErrIndexUnavailable)
	}
	if len(q.Terms) == 0 {
		return ranked.Page{}, nil
	}

	tq := &db.TextQuery{
		IndexName:    tplrepo.IndexName,
		Query:        renderQuery(q.Terms, q.Predicate),
		Offset:       q.Offset,
		Limit:        q.Limit,
		ReturnFields: []string{tplrepo.FieldBody},
	}
	if q.SnippetWords > 0 {
		tq.Summarize = &db.Summarize{
			Fields:    []string{tplrepo.FieldBody},
			Frags:     1,
			Len:       q.SnippetWords,
			Separator: snippetEllipsis,
		}
		tq.Highlight = &db.Highlight{
			Fields: []string{tplrepo.FieldBody},
			Open:   highlightOpen,
			Close:  highlightClose,
		}
	}

	sr, err := r.store.SearchText(ctx, tq)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return ranked.Page{}, fmt.Errorf("search text: %w: %w", domain.ErrIndexUnavailable, err)
		}
		return ranked.Page{}, fmt.Errorf("search text: %w", err)
	}

	return parseTextResults(sr, q.SnippetWords > 0), nil
}

// parseTextResults converts db.SearchResult into a ranked page.
func parseTextResults(sr *db.SearchResult, withSnippet bool) ranked.Page {
	if sr == nil || sr.Total == 0 {
		return ranked.Page{}
	}

	hits := make(ranked.List, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hit := ranked.Hit{ID: tplrepo.IDFromKey(entry.Key), Score: entry.Score}
		if withSnippet {
			hit.Snippet = strings.TrimSpace(entry.Fields[tplrepo.FieldBody])
		}
		hits = append(hits, hit)
	}
	return ranked.Page{Hits: hits, Total: sr.Total}
}

// renderQuery builds the FT query: every term as a prefix, ANDed, then the
// access clause and the filter clauses.
func renderQuery(terms []string, pred access.Predicate) string {
	parts := make([]string, 0, len(terms)+8)
	for _, term := range terms {
		escaped := db.EscapeText(term)
		if utf8.RuneCountInString(term) >= minPrefixLen {
			escaped += "*"
		}
		parts = append(parts, escaped)
	}
	parts = append(parts, accessClause(pred))
	parts = append(parts, filterClauses(pred)...)
	return strings.Join(parts, " ")
}

// accessClause renders owner OR shared OR workspace.
func accessClause(pred access.Predicate) string {
	alts := []string{db.TagClause(tplrepo.FieldOwnerID, pred.RequesterID())}
	if pred.IncludeShared() {
		alts = append(alts, db.TagClause(tplrepo.FieldVisibility, string(domtpl.Shared), string(domtpl.Public)))
	}
	if ws := pred.WorkspaceID(); ws != "" {
		alts = append(alts, db.TagClause(tplrepo.FieldWorkspaceID, ws))
	}
	return "(" + strings.Join(alts, " | ") + ")"
}

func filterClauses(pred access.Predicate) []string {
	f := pred.Filters()
	var out []string

	if tags := f.Tags(); len(tags) > 0 {
		out = append(out, db.TagClause(tplrepo.FieldTags, tags...))
	}
	if v := f.Visibility(); v != "" {
		out = append(out, db.TagClause(tplrepo.FieldVisibility, string(v)))
	}
	if lo, hi := f.CreatedRangeMillis(); lo != nil || hi != nil {
		out = append(out, db.NumericClause(tplrepo.FieldCreatedAt, lo, hi))
	}
	if m := f.MinUsage(); m != nil {
		lo := int64(*m)
		out = append(out, db.NumericClause(tplrepo.FieldUsageCount, &lo, nil))
	}
	if a := f.AuthorID(); a != "" {
		out = append(out, db.TagClause(tplrepo.FieldAuthorID, a))
	}
	return out
}
