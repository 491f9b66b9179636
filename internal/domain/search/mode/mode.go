package mode

import "strings"

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Keyword matches the query as a literal substring of the title.
	Keyword  Mode = "keyword"
	FullText Mode = "fulltext"
	Semantic Mode = "semantic"
	// Hybrid fuses full-text and semantic rankings.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == FullText || m == Semantic || m == Hybrid
}

// Parse maps a user-supplied mode name onto a Mode. Unknown or empty names fall back to FullText.
func Parse(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return FullText
	}
	return m
}
