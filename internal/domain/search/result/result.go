package result

import (
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// Breakdown holds the per-method scores behind a fused score. Nil means the method did not rank the document.
type Breakdown struct {
	FullText *float64
	Semantic *float64
}

// IsEmpty reports whether no per-method score is attached.
func (b Breakdown) IsEmpty() bool { return b.FullText == nil && b.Semantic == nil }

// Scored is a single search hit.
type Scored struct {
	id        string
	score     float64
	breakdown Breakdown
	snippet   string
	template  *template.Template
}

// New creates a search hit without a hydrated projection.
func New(id string, score float64, breakdown Breakdown, snippet string) Scored {
	return Scored{id: id, score: score, breakdown: breakdown, snippet: snippet}
}

// WithTemplate returns a copy carrying the hydrated template projection.
func (s Scored) WithTemplate(t template.Template) Scored {
	s.template = &t
	return s
}

// ID returns the template identifier.
func (s *Scored) ID() string { return s.id }

// Score returns the fused or single-method relevance score.
func (s *Scored) Score() float64 { return s.score }

// Breakdown returns per-method scores (hybrid only).
func (s *Scored) Breakdown() Breakdown { return s.breakdown }

// Snippet returns the highlighted excerpt, empty if none.
func (s *Scored) Snippet() string { return s.snippet }

// Template returns the hydrated projection, nil if hydration failed.
func (s *Scored) Template() *template.Template { return s.template }

// Response is one page of search results.
type Response struct {
	results  []Scored
	total    int
	query    string
	mode     mode.Mode
	filters  filter.Filters
	duration time.Duration
}

// NewResponse creates the response envelope.
func NewResponse(
	results []Scored, total int, query string, m mode.Mode, filters filter.Filters, duration time.Duration,
) Response {
	if results == nil {
		results = []Scored{}
	}
	return Response{
		results:  results,
		total:    total,
		query:    query,
		mode:     m,
		filters:  filters,
		duration: duration,
	}
}

// Results returns the page in rank order.
func (r *Response) Results() []Scored { return r.results }

// Total returns the candidate count. For semantic and hybrid modes it is bounded by the candidate window.
func (r *Response) Total() int { return r.total }

// Query echoes the query text.
func (r *Response) Query() string { return r.query }

// Mode echoes the effective mode.
func (r *Response) Mode() mode.Mode { return r.mode }

// Filters echoes the filters.
func (r *Response) Filters() filter.Filters { return r.filters }

// Duration returns time spent in the search core.
func (r *Response) Duration() time.Duration { return r.duration }

// DurationMs returns Duration in milliseconds.
func (r *Response) DurationMs() int64 { return r.duration.Milliseconds() }
