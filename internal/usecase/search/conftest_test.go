package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

var errBoom = errors.New("boom")

var baseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// fixture builds a template created `age` hours before baseTime.
type fixture struct {
	id, title, body, owner string
	vis                    template.Visibility
	tags                   []string
	age                    int
	vec                    []float32
}

func (f fixture) build(t *testing.T) template.Template {
	t.Helper()
	tpl, err := template.New(template.Params{
		ID:         f.id,
		Title:      f.title,
		Body:       f.body,
		Tags:       f.tags,
		Visibility: f.vis,
		OwnerID:    f.owner,
		CreatedAt:  baseTime.Add(-time.Duration(f.age) * time.Hour),
		Vector:     f.vec,
	})
	if err != nil {
		t.Fatalf("template.New(%s): %v", f.id, err)
	}
	return tpl
}

// --- memStore: DocumentStore over a slice, honoring the predicate ---

type memStore struct {
	mu        sync.Mutex
	templates []template.Template

	candidatesErr error
	substringErr  error
	fetchErr      error
	hidden        map[string]bool // ids Fetch pretends were deleted

	candidatesCalls int
	substringCalls  int
	fetchCalls      int
	lastSubstring   lookup.SubstringQuery
}

func newMemStore(t *testing.T, fixtures ...fixture) *memStore {
	t.Helper()
	s := &memStore{}
	for _, f := range fixtures {
		s.templates = append(s.templates, f.build(t))
	}
	return s
}

func (s *memStore) Candidates(ctx context.Context, pred access.Predicate) ([]lookup.Candidate, error) {
	s.mu.Lock()
	s.candidatesCalls++
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.candidatesErr != nil {
		return nil, s.candidatesErr
	}
	var out []lookup.Candidate
	for i := range s.templates {
		t := &s.templates[i]
		if pred.Allows(t) && t.Vector() != nil {
			out = append(out, lookup.Candidate{ID: t.ID(), Vector: t.Vector(), CreatedAt: t.CreatedAt()})
		}
	}
	return out, nil
}

func (s *memStore) FindSubstring(ctx context.Context, q lookup.SubstringQuery) ([]string, int, error) {
	s.mu.Lock()
	s.substringCalls++
	s.lastSubstring = q
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s.substringErr != nil {
		return nil, 0, s.substringErr
	}

	needle := strings.ToLower(q.Needle)
	var matched []template.Template
	for i := range s.templates {
		t := s.templates[i]
		if !q.Predicate.Allows(&t) {
			continue
		}
		hay := strings.ToLower(t.Title())
		if !q.TitleOnly {
			hay += "\n" + strings.ToLower(t.Body())
		}
		if strings.Contains(hay, needle) {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	var ids []string
	for i := q.Offset; i < len(matched) && len(ids) < q.Limit; i++ {
		ids = append(ids, matched[i].ID())
	}
	return ids, len(matched), nil
}

func (s *memStore) Fetch(ctx context.Context, ids []string) ([]template.Template, error) {
	s.mu.Lock()
	s.fetchCalls++
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []template.Template
	for _, id := range ids {
		if s.hidden[id] {
			continue
		}
		for _, t := range s.templates {
			if t.ID() == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidatesCalls + s.substringCalls + s.fetchCalls
}

// --- memIndex: RankedTextSearch with prefix-AND matching and field weights ---

type memIndex struct {
	mu    sync.Mutex
	store *memStore
	err   error
	hook  func(ctx context.Context) error // runs before searching
	calls int
	last  lookup.TextQuery
}

func (x *memIndex) SearchText(ctx context.Context, q lookup.TextQuery) (ranked.Page, error) {
	x.mu.Lock()
	x.calls++
	x.last = q
	x.mu.Unlock()
	if x.hook != nil {
		if err := x.hook(ctx); err != nil {
			return ranked.Page{}, err
		}
	}
	if x.err != nil {
		return ranked.Page{}, x.err
	}

	type hit struct {
		t     template.Template
		score float64
	}
	var all []hit
	for _, t := range x.store.templates {
		if !q.Predicate.Allows(&t) {
			continue
		}
		score, ok := weightedMatch(&t, q.Terms)
		if ok {
			all = append(all, hit{t: t, score: score})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	var list ranked.List
	for _, h := range all {
		list = append(list, ranked.Hit{ID: h.t.ID(), Score: h.score, Snippet: "<b>" + h.t.Title() + "</b>"})
	}
	return ranked.Page{Hits: list.Window(q.Offset, q.Limit), Total: len(list)}, nil
}

func weightedMatch(t *template.Template, terms []string) (float64, bool) {
	fields := []struct {
		text   string
		weight float64
	}{
		{t.Title(), 10},
		{t.Body(), 5},
		{strings.Join(t.Tags(), " "), 1},
	}
	var score float64
	for _, term := range terms {
		matched := false
		for _, f := range fields {
			for _, w := range strings.Fields(strings.ToLower(f.text)) {
				if strings.HasPrefix(w, term) {
					score += f.weight
					matched = true
				}
			}
		}
		if !matched {
			return 0, false
		}
	}
	return score, true
}

func (x *memIndex) callCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls
}

// --- mockEmbedder ---

type mockEmbedder struct {
	mu      sync.Mutex
	embedFn func(ctx context.Context, text string) ([]float32, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.embedFn == nil {
		return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
	}
	vec, err := m.embedFn(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 3}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func fixedEmbedder(vec ...float32) *mockEmbedder {
	return &mockEmbedder{embedFn: func(context.Context, string) ([]float32, error) { return vec, nil }}
}

func failingEmbedder(err error) *mockEmbedder {
	return &mockEmbedder{embedFn: func(context.Context, string) ([]float32, error) { return nil, err }}
}

func newTestService(store *memStore, index *memIndex, emb *mockEmbedder) *Service {
	return New(index, store, emb, DefaultConfig(), nil)
}

