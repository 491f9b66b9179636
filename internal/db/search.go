package db

// TextQuery is the input for a ranked FT.SEARCH call.
// Query is a fully rendered query string; the store adds no clauses of its own.
type TextQuery struct {
	IndexName    string
	Query        string
	Offset       int
	Limit        int
	ReturnFields []string
	Summarize    *Summarize
	Highlight    *Highlight
}

// Summarize asks the engine to cut a fragment out of matching fields.
type Summarize struct {
	Fields    []string
	Frags     int
	Len       int // words per fragment
	Separator string
}

// Highlight wraps matched terms in Open/Close tags.
type Highlight struct {
	Fields []string
	Open   string
	Close  string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
