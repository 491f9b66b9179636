package promptdex

import "time"

// SearchMode controls the ranking strategy.
type SearchMode string

// Search mode constants.
const (
	ModeKeyword  SearchMode = "keyword"
	ModeFullText SearchMode = "fulltext"
	ModeSemantic SearchMode = "semantic"
	ModeHybrid   SearchMode = "hybrid"
)

// Visibility controls who besides the owner may see a template.
type Visibility string

// Visibility constants.
const (
	Private Visibility = "private"
	Shared  Visibility = "shared"
	Public  Visibility = "public"
)

// Template is a prompt template. Zero Visibility means private, zero CreatedAt
// means the time of the upsert.
type Template struct {
	ID          string
	Title       string
	Body        string
	Tags        []string
	Visibility  Visibility
	UsageCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string
	AuthorID    string
	WorkspaceID string
	Vector      []float32
}

// Filters narrows a search. Unset fields place no constraint.
type Filters struct {
	Tags        []string // match any
	Visibility  Visibility
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	WorkspaceID string
	MinUsage    *int
	AuthorID    string
}

// SearchOptions configures a search query.
type SearchOptions struct {
	Mode          SearchMode // default fulltext
	Filters       Filters
	Limit         int // default 20, max 100
	Offset        int
	IncludeShared bool
}

// Breakdown holds the per-method scores behind a hybrid hit.
type Breakdown struct {
	FullText *float64
	Semantic *float64
}

// SearchResult is a single ranked template.
type SearchResult struct {
	ID        string
	Score     float64
	Breakdown *Breakdown
	Snippet   string
	Template  *Template
}

// SearchPage is one page of search results.
type SearchPage struct {
	Results  []SearchResult
	Total    int
	Mode     SearchMode
	Duration time.Duration
}
