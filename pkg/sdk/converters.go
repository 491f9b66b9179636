package promptdex

import (
	"fmt"

	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

func toDomainParams(t *Template) domtpl.Params {
	return domtpl.Params{
		ID:          t.ID,
		Title:       t.Title,
		Body:        t.Body,
		Tags:        t.Tags,
		Visibility:  domtpl.Visibility(t.Visibility),
		UsageCount:  t.UsageCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		OwnerID:     t.OwnerID,
		AuthorID:    t.AuthorID,
		WorkspaceID: t.WorkspaceID,
		Vector:      t.Vector,
	}
}

func fromDomainTemplate(t *domtpl.Template) Template {
	return Template{
		ID:          t.ID(),
		Title:       t.Title(),
		Body:        t.Body(),
		Tags:        t.Tags(),
		Visibility:  Visibility(t.Visibility()),
		UsageCount:  t.UsageCount(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
		OwnerID:     t.OwnerID(),
		AuthorID:    t.AuthorID(),
		WorkspaceID: t.WorkspaceID(),
		Vector:      t.Vector(),
	}
}

func toRequest(query, requesterID string, opts *SearchOptions) (request.Request, error) {
	f := opts.Filters
	filters, err := filter.New(filter.Params{
		Tags:        f.Tags,
		Visibility:  domtpl.Visibility(f.Visibility),
		CreatedFrom: f.CreatedFrom,
		CreatedTo:   f.CreatedTo,
		WorkspaceID: f.WorkspaceID,
		MinUsage:    f.MinUsage,
		AuthorID:    f.AuthorID,
	})
	if err != nil {
		return request.Request{}, fmt.Errorf("filters: %w", err)
	}

	m := mode.FullText
	if opts.Mode != "" {
		m = mode.Mode(opts.Mode)
		if !m.IsValid() {
			return request.Request{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidQuery, opts.Mode)
		}
	}

	return request.New(query, m, filters, opts.Limit, opts.Offset, requesterID, opts.IncludeShared)
}

func fromResponse(resp *result.Response) SearchPage {
	results := resp.Results()
	out := make([]SearchResult, 0, len(results))
	for i := range results {
		r := &results[i]
		sr := SearchResult{
			ID:      r.ID(),
			Score:   r.Score(),
			Snippet: r.Snippet(),
		}
		if b := r.Breakdown(); !b.IsEmpty() {
			sr.Breakdown = &Breakdown{FullText: b.FullText, Semantic: b.Semantic}
		}
		if t := r.Template(); t != nil {
			tpl := fromDomainTemplate(t)
			sr.Template = &tpl
		}
		out = append(out, sr)
	}
	return SearchPage{
		Results:  out,
		Total:    resp.Total(),
		Mode:     SearchMode(resp.Mode()),
		Duration: resp.Duration(),
	}
}
