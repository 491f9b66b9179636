package template

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/promptdex/internal/db"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, key string) error
	existsFn       func(ctx context.Context, key string) (bool, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	textSearch     bool
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SupportsTextSearch(_ context.Context) bool {
	return m.textSearch
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{textSearch: true}
	return New(ms), ms
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testTemplate(t *testing.T, id string, mutate func(p *domtpl.Params)) domtpl.Template {
	t.Helper()
	p := domtpl.Params{
		ID:         id,
		Title:      "Code review checklist",
		Body:       "Review the diff for correctness and tests.",
		Tags:       []string{"review", "go"},
		Visibility: domtpl.Private,
		UsageCount: 3,
		CreatedAt:  baseTime,
		OwnerID:    "alice",
		Vector:     []float32{0.5, -0.25, 1},
	}
	if mutate != nil {
		mutate(&p)
	}
	tpl, err := domtpl.New(p)
	if err != nil {
		t.Fatalf("build template %s: %v", id, err)
	}
	return tpl
}

// hashStore backs Scan and HGetAllMulti with a fixed set of templates.
func hashStore(ms *mockStore, ts ...domtpl.Template) {
	hashes := make(map[string]map[string]string, len(ts))
	keys := make([]string, 0, len(ts))
	for i := range ts {
		k := Key(ts[i].ID())
		hashes[k] = buildHashFields(&ts[i])
		keys = append(keys, k)
	}
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return keys, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, ks []string) ([]map[string]string, error) {
		out := make([]map[string]string, len(ks))
		for i, k := range ks {
			if h, ok := hashes[k]; ok {
				out[i] = h
			} else {
				out[i] = map[string]string{}
			}
		}
		return out, nil
	}
}
