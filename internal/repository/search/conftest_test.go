package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/promptdex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	textSearch   bool
	calls        int
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.calls++
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SupportsTextSearch(_ context.Context) bool {
	return m.textSearch
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{textSearch: true}
	return New(ms), ms
}
