package chi

import (
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// SearchBody is the POST /v1/templates/search request.
type SearchBody struct {
	Query         string       `json:"query"`
	Mode          string       `json:"mode,omitempty"`
	Limit         *int         `json:"limit,omitempty"`
	Offset        int          `json:"offset,omitempty"`
	IncludeShared bool         `json:"include_shared,omitempty"`
	Filters       *FiltersBody `json:"filters,omitempty"`
}

// FiltersBody carries search filters in requests and echoes them in responses.
type FiltersBody struct {
	Tags        []string   `json:"tags,omitempty"`
	Visibility  string     `json:"visibility,omitempty"`
	CreatedFrom *time.Time `json:"created_from,omitempty"`
	CreatedTo   *time.Time `json:"created_to,omitempty"`
	WorkspaceID string     `json:"workspace_id,omitempty"`
	MinUsage    *int       `json:"min_usage,omitempty"`
	AuthorID    string     `json:"author_id,omitempty"`
}

// SearchResponse is the search response envelope.
type SearchResponse struct {
	Results    []SearchResultItem `json:"results"`
	Total      int                `json:"total"`
	Query      string             `json:"query"`
	Mode       string             `json:"mode"`
	Filters    FiltersBody        `json:"filters"`
	DurationMs int64              `json:"duration_ms"`
}

// SearchResultItem is one ranked template.
type SearchResultItem struct {
	ID        string        `json:"id"`
	Score     float64       `json:"score"`
	Breakdown *Breakdown    `json:"breakdown,omitempty"`
	Snippet   string        `json:"snippet,omitempty"`
	Template  *TemplateItem `json:"template,omitempty"`
}

// Breakdown holds per-method scores of a hybrid hit.
type Breakdown struct {
	FullText *float64 `json:"fulltext,omitempty"`
	Semantic *float64 `json:"semantic,omitempty"`
}

// TemplateItem is the template projection returned with a hit. The vector is never returned.
type TemplateItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Tags        []string  `json:"tags"`
	Visibility  string    `json:"visibility"`
	UsageCount  int       `json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OwnerID     string    `json:"owner_id"`
	AuthorID    string    `json:"author_id,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewSearchResponse converts a core response to its JSON shape.
func NewSearchResponse(resp *result.Response) SearchResponse {
	items := make([]SearchResultItem, len(resp.Results()))
	for i := range resp.Results() {
		items[i] = scoredToDTO(&resp.Results()[i])
	}
	return SearchResponse{
		Results:    items,
		Total:      resp.Total(),
		Query:      resp.Query(),
		Mode:       string(resp.Mode()),
		Filters:    filtersToDTO(resp.Filters()),
		DurationMs: resp.DurationMs(),
	}
}

func scoredToDTO(s *result.Scored) SearchResultItem {
	item := SearchResultItem{
		ID:      s.ID(),
		Score:   s.Score(),
		Snippet: s.Snippet(),
	}
	if b := s.Breakdown(); !b.IsEmpty() {
		item.Breakdown = &Breakdown{FullText: b.FullText, Semantic: b.Semantic}
	}
	if t := s.Template(); t != nil {
		item.Template = templateToDTO(t)
	}
	return item
}

func templateToDTO(t *template.Template) *TemplateItem {
	tags := t.Tags()
	if tags == nil {
		tags = []string{}
	}
	return &TemplateItem{
		ID:          t.ID(),
		Title:       t.Title(),
		Body:        t.Body(),
		Tags:        tags,
		Visibility:  string(t.Visibility()),
		UsageCount:  t.UsageCount(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
		OwnerID:     t.OwnerID(),
		AuthorID:    t.AuthorID(),
		WorkspaceID: t.WorkspaceID(),
	}
}

func filtersToDTO(f filter.Filters) FiltersBody {
	return FiltersBody{
		Tags:        f.Tags(),
		Visibility:  string(f.Visibility()),
		CreatedFrom: f.CreatedFrom(),
		CreatedTo:   f.CreatedTo(),
		WorkspaceID: f.WorkspaceID(),
		MinUsage:    f.MinUsage(),
		AuthorID:    f.AuthorID(),
	}
}
