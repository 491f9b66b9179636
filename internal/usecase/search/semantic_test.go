package search

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero query", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero candidate", []float32{1, 1}, []float32{0, 0}, 0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("cosineSimilarity = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestSemantic_ThresholdIsInclusive(t *testing.T) {
	store := newMemStore(t,
		fixture{id: "exact", title: "Exact", owner: "u1", age: 1, vec: []float32{1, 0}},
		fixture{id: "below", title: "Below", owner: "u1", age: 2, vec: []float32{0.49, 0.87}},
	)
	s := &semanticSearcher{
		embed:         fixedEmbedder(1, 0),
		docs:          store,
		minSimilarity: 1,
		logger:        zap.NewNop(),
	}

	page, err := s.search(context.Background(), "q", access.Build("u1", false, filter.Filters{}), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Hits) != 1 || page.Hits[0].ID != "exact" {
		t.Fatalf("expected [exact], got %v", page.Hits.IDs())
	}
}

func TestSemantic_DefaultThresholdDiscardsWeakMatches(t *testing.T) {
	store := newMemStore(t,
		fixture{id: "strong", title: "Strong", owner: "u1", age: 1, vec: []float32{0.9, 0.1}},
		fixture{id: "weak", title: "Weak", owner: "u1", age: 2, vec: []float32{0.3, 0.95}},
		fixture{id: "unembedded", title: "Unembedded", owner: "u1", age: 3},
	)
	s := &semanticSearcher{
		embed:         fixedEmbedder(1, 0),
		docs:          store,
		minSimilarity: DefaultMinSimilarity,
		logger:        zap.NewNop(),
	}

	page, err := s.search(context.Background(), "q", access.Build("u1", false, filter.Filters{}), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || page.Hits[0].ID != "strong" {
		t.Fatalf("expected only strong, got %v (total %d)", page.Hits.IDs(), page.Total)
	}
}

func TestSemantic_WindowsAfterSorting(t *testing.T) {
	store := newMemStore(t,
		fixture{id: "a", title: "A", owner: "u1", age: 1, vec: []float32{0.6, 0.8}},
		fixture{id: "b", title: "B", owner: "u1", age: 2, vec: []float32{1, 0}},
		fixture{id: "c", title: "C", owner: "u1", age: 3, vec: []float32{0.8, 0.6}},
	)
	s := &semanticSearcher{embed: fixedEmbedder(1, 0), docs: store, minSimilarity: 0.5, logger: zap.NewNop()}

	page, err := s.search(context.Background(), "q", access.Build("u1", false, filter.Filters{}), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}
	if len(page.Hits) != 1 || page.Hits[0].ID != "c" {
		t.Fatalf("expected [c], got %v", page.Hits.IDs())
	}
}

func TestSemantic_NoEmbedderDegradesToEmpty(t *testing.T) {
	store := newMemStore(t,
		fixture{id: "a", title: "A", owner: "u1", age: 1, vec: []float32{1, 0}},
	)
	s := &semanticSearcher{docs: store, minSimilarity: 0.5, logger: zap.NewNop()}

	page, err := s.search(context.Background(), "q", access.Build("u1", false, filter.Filters{}), 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Hits) != 0 || page.Total != 0 {
		t.Fatalf("expected empty page, got %v (total %d)", page.Hits.IDs(), page.Total)
	}
	if store.calls() != 0 {
		t.Errorf("expected no store calls without an embedder, got %d", store.calls())
	}
}
