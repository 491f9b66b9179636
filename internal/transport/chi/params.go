package chi

import (
	"fmt"
	"net/url"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// RequesterHeader carries the authenticated user id set by the upstream gateway.
const RequesterHeader = "X-Requester-ID"

// Limits bounds page sizes at the HTTP edge.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// SearchParams are the GET /v1/templates/search query parameters.
type SearchParams struct {
	Q             *string
	Mode          *string
	Limit         *int
	Offset        *int
	IncludeShared *bool
	Tags          *[]string
	Visibility    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	WorkspaceID   *string
	MinUsage      *int
	AuthorID      *string
}

// BindSearchParams binds form-style exploded query parameters; tags may repeat.
func BindSearchParams(q url.Values) (SearchParams, error) {
	var p SearchParams
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &p.Q},
		{"mode", &p.Mode},
		{"limit", &p.Limit},
		{"offset", &p.Offset},
		{"include_shared", &p.IncludeShared},
		{"tags", &p.Tags},
		{"visibility", &p.Visibility},
		{"created_from", &p.CreatedFrom},
		{"created_to", &p.CreatedTo},
		{"workspace_id", &p.WorkspaceID},
		{"min_usage", &p.MinUsage},
		{"author_id", &p.AuthorID},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return SearchParams{}, fmt.Errorf("invalid query parameter %q: %w", b.name, err)
		}
	}
	return p, nil
}

// Body converts bound query parameters to the POST body shape.
func (p SearchParams) Body() SearchBody {
	b := SearchBody{
		Query:         deref(p.Q),
		Mode:          deref(p.Mode),
		Limit:         p.Limit,
		Offset:        deref(p.Offset),
		IncludeShared: deref(p.IncludeShared),
	}
	f := FiltersBody{
		Visibility:  deref(p.Visibility),
		CreatedFrom: p.CreatedFrom,
		CreatedTo:   p.CreatedTo,
		WorkspaceID: deref(p.WorkspaceID),
		MinUsage:    p.MinUsage,
		AuthorID:    deref(p.AuthorID),
	}
	if p.Tags != nil {
		f.Tags = *p.Tags
	}
	b.Filters = &f
	return b
}

// toRequest validates a search body into a core request.
func (l Limits) toRequest(b *SearchBody, requesterID string) (request.Request, error) {
	var fp filter.Params
	if b.Filters != nil {
		fp = filter.Params{
			Tags:        b.Filters.Tags,
			Visibility:  template.Visibility(b.Filters.Visibility),
			CreatedFrom: b.Filters.CreatedFrom,
			CreatedTo:   b.Filters.CreatedTo,
			WorkspaceID: b.Filters.WorkspaceID,
			MinUsage:    b.Filters.MinUsage,
			AuthorID:    b.Filters.AuthorID,
		}
	}
	filters, err := filter.New(fp)
	if err != nil {
		return request.Request{}, fmt.Errorf("parse filters: %w", err)
	}

	limit := l.DefaultLimit
	if b.Limit != nil {
		if *b.Limit < 0 {
			return request.Request{}, fmt.Errorf("%w: limit must be non-negative", domain.ErrInvalidQuery)
		}
		if *b.Limit > 0 {
			limit = *b.Limit
		}
	}
	if l.MaxLimit > 0 && limit > l.MaxLimit {
		limit = l.MaxLimit
	}

	req, err := request.New(b.Query, mode.Parse(b.Mode), filters, limit, b.Offset, requesterID, b.IncludeShared)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return req, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
