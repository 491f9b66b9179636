// Package ranked holds the ordered output of a single retrieval method.
package ranked

// Hit is one document in a ranked list. Its 1-based rank is its position in the list.
type Hit struct {
	ID      string
	Score   float64
	Snippet string
}

// List is ordered best first.
type List []Hit

// Page is a list plus the number of matches the producer knows about.
type Page struct {
	Hits  List
	Total int
}

// Window returns the sub-list [offset, offset+limit). Out-of-range offsets yield an empty list.
func (l List) Window(offset, limit int) List {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(l) || limit <= 0 {
		return List{}
	}
	end := offset + limit
	if end > len(l) {
		end = len(l)
	}
	return l[offset:end]
}

// IDs returns document ids in rank order.
func (l List) IDs() []string {
	ids := make([]string, len(l))
	for i := range l {
		ids[i] = l[i].ID
	}
	return ids
}

// Scores indexes raw scores by document id.
func (l List) Scores() map[string]float64 {
	m := make(map[string]float64, len(l))
	for _, h := range l {
		if _, ok := m[h.ID]; !ok {
			m[h.ID] = h.Score
		}
	}
	return m
}

// Ordinal returns the synthetic score for position i of a list without real relevance scores.
func Ordinal(i int) float64 {
	return max(0, 1-float64(i)*0.01)
}
