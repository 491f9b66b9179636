// Package lookup defines the retrieval requests the search core sends to storage collaborators.
package lookup

import (
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
)

// TextQuery is a tokenized prefix-AND query for the ranked text index.
// Every term must prefix-match title, body or tags.
type TextQuery struct {
	Terms     []string
	Predicate access.Predicate
	Offset    int
	Limit     int
	// SnippetWords bounds the highlighted excerpt; zero disables snippets.
	SnippetWords int
}

// SubstringQuery asks for accessible templates containing Needle case-insensitively, newest first.
type SubstringQuery struct {
	Needle    string
	TitleOnly bool
	Predicate access.Predicate
	Offset    int
	Limit     int
}

// Candidate is an embedded template eligible for semantic scoring.
type Candidate struct {
	ID        string
	Vector    []float32
	CreatedAt time.Time
}
