package request

import (
	"fmt"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 512
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Request is a validated search query. An empty query is valid and yields no results.
type Request struct {
	query         string
	searchMode    mode.Mode
	filters       filter.Filters
	limit         int
	offset        int
	requesterID   string
	includeShared bool
}

// New validates and normalizes search parameters.
// Defaults: mode=fulltext, limit=20. Limit is clamped to MaxLimit.
func New(
	query string,
	m mode.Mode,
	filters filter.Filters,
	limit, offset int,
	requesterID string,
	includeShared bool,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if requesterID == "" {
		return Request{}, fmt.Errorf("%w: requester is required", domain.ErrInvalidQuery)
	}
	if !m.IsValid() {
		m = mode.FullText
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("%w: limit must be non-negative", domain.ErrInvalidQuery)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("%w: offset must be non-negative", domain.ErrInvalidQuery)
	}

	return Request{
		query:         query,
		searchMode:    m,
		filters:       filters,
		limit:         limit,
		offset:        offset,
		requesterID:   requesterID,
		includeShared: includeShared,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filters returns the filter constraints.
func (r *Request) Filters() filter.Filters { return r.filters }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of results to skip.
func (r *Request) Offset() int { return r.offset }

// RequesterID returns the identity searching.
func (r *Request) RequesterID() string { return r.requesterID }

// IncludeShared reports whether shared and public templates of other users are searched.
func (r *Request) IncludeShared() bool { return r.includeShared }
