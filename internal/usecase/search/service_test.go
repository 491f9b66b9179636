package search

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// corpus is searched by requester u1; "secret" belongs to u2 and must never surface.
func corpus(t *testing.T) *memStore {
	return newMemStore(t,
		fixture{id: "t1", title: "Email follow-up writer", body: "Write a polite follow-up email", owner: "u1", age: 1, vec: []float32{1, 0, 0}},
		fixture{id: "t2", title: "Meeting summary", body: "Summarize email threads and meeting notes", owner: "u1", age: 2, vec: []float32{0.9, 0.1, 0}},
		fixture{id: "t3", title: "Email subject lines", body: "Generate subject lines", owner: "u2", vis: template.Shared, age: 3, vec: []float32{0.8, 0.6, 0}},
		fixture{id: "secret", title: "Secret email prompt", body: "private to u2", owner: "u2", age: 0, vec: []float32{1, 0, 0}},
		fixture{id: "t5", title: "Code review", body: "Review code", owner: "u1", age: 4, vec: []float32{0, 1, 0}},
		fixture{id: "t6", title: "Public email digest", body: "Digest", owner: "u3", vis: template.Public, age: 5, vec: []float32{0.6, 0.8, 0}},
	)
}

func newReq(t *testing.T, query string, m mode.Mode, limit, offset int, includeShared bool) *request.Request {
	t.Helper()
	req, err := request.New(query, m, filter.Filters{}, limit, offset, "u1", includeShared)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func scoredIDs(resp result.Response) []string {
	out := make([]string, 0, len(resp.Results()))
	for _, r := range resp.Results() {
		out = append(out, r.ID())
	}
	return out
}

func expectIDs(t *testing.T, resp result.Response, want ...string) {
	t.Helper()
	got := scoredIDs(resp)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSearch_WhitespaceQueryContactsNoCollaborator(t *testing.T) {
	for _, m := range []mode.Mode{mode.Keyword, mode.FullText, mode.Semantic, mode.Hybrid} {
		t.Run(string(m), func(t *testing.T) {
			store := corpus(t)
			index := &memIndex{store: store}
			emb := fixedEmbedder(1, 0, 0)
			svc := newTestService(store, index, emb)

			resp, err := svc.Search(context.Background(), newReq(t, "  \t ", m, 10, 0, true))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(resp.Results()) != 0 || resp.Total() != 0 {
				t.Errorf("expected empty response, got %d results total %d", len(resp.Results()), resp.Total())
			}
			if store.calls() != 0 || index.callCount() != 0 || emb.callCount() != 0 {
				t.Errorf("expected no collaborator calls, got store=%d index=%d embed=%d",
					store.calls(), index.callCount(), emb.callCount())
			}
		})
	}
}

func TestSearch_FullTextRanked(t *testing.T) {
	store := corpus(t)
	index := &memIndex{store: store}
	svc := newTestService(store, index, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "Email", mode.FullText, 10, 0, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectIDs(t, resp, "t1", "t2")
	if resp.Total() != 2 {
		t.Errorf("expected total 2, got %d", resp.Total())
	}
	if resp.Results()[0].Snippet() == "" {
		t.Error("expected snippet from index")
	}
	if !resp.Results()[0].Breakdown().IsEmpty() {
		t.Error("single-method results carry no breakdown")
	}
	if resp.Results()[0].Template() == nil {
		t.Fatal("expected hydrated template")
	}
	if index.last.SnippetWords != DefaultSnippetWords {
		t.Errorf("expected snippet window %d, got %d", DefaultSnippetWords, index.last.SnippetWords)
	}
	if len(index.last.Terms) != 1 || index.last.Terms[0] != "email" {
		t.Errorf("expected lower-cased terms [email], got %v", index.last.Terms)
	}
	if resp.Mode() != mode.FullText || resp.Query() != "Email" {
		t.Errorf("unexpected echo: mode=%q query=%q", resp.Mode(), resp.Query())
	}
}

func TestSearch_FullTextFallbackPaginates(t *testing.T) {
	store := corpus(t)
	index := &memIndex{store: store, err: domain.ErrIndexUnavailable}
	svc := newTestService(store, index, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.FullText, 2, 1, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Recency order over title+body: t1, t2, t3, t6.
	expectIDs(t, resp, "t2", "t3")
	if resp.Total() != 4 {
		t.Errorf("expected total 4, got %d", resp.Total())
	}
	if s := resp.Results()[0].Score(); math.Abs(s-0.99) > 1e-9 {
		t.Errorf("expected ordinal 0.99, got %f", s)
	}
	if s := resp.Results()[1].Score(); math.Abs(s-0.98) > 1e-9 {
		t.Errorf("expected ordinal 0.98, got %f", s)
	}
	if store.lastSubstring.TitleOnly {
		t.Error("fallback must match title and body")
	}
}

func TestSearch_FullTextIndexErrorDegradesToEmpty(t *testing.T) {
	store := corpus(t)
	index := &memIndex{store: store, err: errBoom}
	svc := newTestService(store, index, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.FullText, 10, 0, true))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Results()) != 0 {
		t.Errorf("expected empty results, got %v", scoredIDs(resp))
	}
	if store.substringCalls != 0 {
		t.Error("non-availability errors must not trigger the substring fallback")
	}
}

func TestSearch_KeywordMatchesTitleOnly(t *testing.T) {
	store := corpus(t)
	index := &memIndex{store: store}
	svc := newTestService(store, index, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "EMAIL", mode.Keyword, 10, 0, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectIDs(t, resp, "t1", "t3", "t6")
	if resp.Total() != 3 {
		t.Errorf("expected total 3, got %d", resp.Total())
	}
	if index.callCount() != 0 {
		t.Error("keyword mode must not query the ranked index")
	}
	if !store.lastSubstring.TitleOnly {
		t.Error("keyword mode must match titles only")
	}
}

func TestSearch_Semantic(t *testing.T) {
	store := corpus(t)
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "follow up", mode.Semantic, 10, 0, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// t5 is orthogonal (similarity 0) and falls below the threshold.
	expectIDs(t, resp, "t1", "t2", "t3", "t6")
	if resp.Total() != 4 {
		t.Errorf("expected total 4, got %d", resp.Total())
	}
	if s := resp.Results()[0].Score(); math.Abs(s-1) > 1e-9 {
		t.Errorf("expected similarity 1 for t1, got %f", s)
	}
}

func TestSearch_SemanticTieBreaksByRecency(t *testing.T) {
	store := newMemStore(t,
		fixture{id: "old", title: "Old", owner: "u1", age: 10, vec: []float32{1, 1}},
		fixture{id: "new", title: "New", owner: "u1", age: 1, vec: []float32{1, 1}},
		fixture{id: "mid", title: "Mid", owner: "u1", age: 5, vec: []float32{1, 1}},
	)
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 1))

	resp, err := svc.Search(context.Background(), newReq(t, "anything", mode.Semantic, 10, 0, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectIDs(t, resp, "new", "mid", "old")
}

func TestSearch_SemanticEmbeddingFailureIsNotAnError(t *testing.T) {
	store := corpus(t)
	svc := newTestService(store, &memIndex{store: store}, failingEmbedder(domain.ErrEmbeddingProviderError))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Semantic, 10, 0, true))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Results()) != 0 || resp.Total() != 0 {
		t.Errorf("expected empty response, got %v", scoredIDs(resp))
	}
	if store.candidatesCalls != 0 {
		t.Error("candidates must not be fetched without a query vector")
	}
}

func TestSearch_SemanticCandidateFailureIsNotAnError(t *testing.T) {
	store := corpus(t)
	store.candidatesErr = errBoom
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Semantic, 10, 0, true))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Results()) != 0 {
		t.Errorf("expected empty results, got %v", scoredIDs(resp))
	}
}

func TestSearch_HybridFusesBothBranches(t *testing.T) {
	store := corpus(t)
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 10, 0, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// fulltext: t1, t3, t6, t2; semantic: t1, t2, t3, t6.
	expectIDs(t, resp, "t1", "t3", "t2", "t6")
	if resp.Total() != 4 {
		t.Errorf("expected total 4, got %d", resp.Total())
	}

	top := resp.Results()[0]
	if math.Abs(top.Score()-2.0/61) > 1e-12 {
		t.Errorf("expected fused score 2/61, got %f", top.Score())
	}
	bd := top.Breakdown()
	if bd.FullText == nil || bd.Semantic == nil {
		t.Fatalf("expected both per-method scores, got %+v", bd)
	}
	if *bd.FullText != 15 {
		t.Errorf("expected full-text score 15, got %f", *bd.FullText)
	}
	if math.Abs(*bd.Semantic-1) > 1e-9 {
		t.Errorf("expected semantic score 1, got %f", *bd.Semantic)
	}
	if top.Snippet() == "" {
		t.Error("expected snippet carried from full-text branch")
	}
}

func TestSearch_HybridUsesWidenedWindow(t *testing.T) {
	store := corpus(t)
	index := &memIndex{store: store}
	svc := newTestService(store, index, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 1, 1, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.last.Limit != DefaultHybridWindow || index.last.Offset != 0 {
		t.Errorf("expected branch window 0/%d, got %d/%d", DefaultHybridWindow, index.last.Offset, index.last.Limit)
	}
	expectIDs(t, resp, "t3")
	if resp.Total() != 4 {
		t.Errorf("expected total 4, got %d", resp.Total())
	}
}

func TestSearch_HybridSingleBranchFailure(t *testing.T) {
	t.Run("embedding fails", func(t *testing.T) {
		store := corpus(t)
		svc := newTestService(store, &memIndex{store: store}, failingEmbedder(errBoom))

		resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 10, 0, true))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		expectIDs(t, resp, "t1", "t3", "t6", "t2")
		for _, r := range resp.Results() {
			if r.Breakdown().Semantic != nil {
				t.Errorf("%s: expected no semantic score", r.ID())
			}
		}
	})

	t.Run("index fails", func(t *testing.T) {
		store := corpus(t)
		svc := newTestService(store, &memIndex{store: store, err: errBoom}, fixedEmbedder(1, 0, 0))

		resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 10, 0, true))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		expectIDs(t, resp, "t1", "t2", "t3", "t6")
	})
}

func TestSearch_HybridBranchesRunConcurrently(t *testing.T) {
	store := corpus(t)

	var barrier sync.WaitGroup
	barrier.Add(2)
	meet := func(ctx context.Context) error {
		barrier.Done()
		done := make(chan struct{})
		go func() {
			barrier.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("other branch never started")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	index := &memIndex{store: store, hook: meet}
	emb := &mockEmbedder{embedFn: func(ctx context.Context, _ string) ([]float32, error) {
		if err := meet(ctx); err != nil {
			return nil, err
		}
		return []float32{1, 0, 0}, nil
	}}
	svc := newTestService(store, index, emb)

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 10, 0, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := resp.Results()[0].Breakdown()
	if top.FullText == nil || top.Semantic == nil {
		t.Fatal("expected both branches to contribute; they did not overlap in time")
	}
}

func TestSearch_CancellationDiscardsResults(t *testing.T) {
	store := corpus(t)
	ctx, cancel := context.WithCancel(context.Background())

	index := &memIndex{store: store, hook: func(ctx context.Context) error { return ctx.Err() }}
	emb := &mockEmbedder{embedFn: func(ctx context.Context, _ string) ([]float32, error) {
		cancel()
		return nil, ctx.Err()
	}}
	svc := newTestService(store, index, emb)

	_, err := svc.Search(ctx, newReq(t, "email", mode.Hybrid, 10, 0, true))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearch_NoInaccessibleDocuments(t *testing.T) {
	for _, m := range []mode.Mode{mode.Keyword, mode.FullText, mode.Semantic, mode.Hybrid} {
		for _, shared := range []bool{false, true} {
			for _, indexErr := range []error{nil, domain.ErrIndexUnavailable} {
				store := corpus(t)
				svc := newTestService(store, &memIndex{store: store, err: indexErr}, fixedEmbedder(1, 0, 0))

				req := newReq(t, "email", m, 100, 0, shared)
				resp, err := svc.Search(context.Background(), req)
				if err != nil {
					t.Fatalf("%s: unexpected error: %v", m, err)
				}
				pred := access.Build("u1", shared, filter.Filters{})
				for _, r := range resp.Results() {
					if r.ID() == "secret" {
						t.Fatalf("%s shared=%v: private document of another user leaked", m, shared)
					}
					if r.Template() == nil || !pred.Allows(r.Template()) {
						t.Errorf("%s shared=%v: %s violates access predicate", m, shared, r.ID())
					}
				}
			}
		}
	}
}

func TestSearch_FiltersApplyAtRetrieval(t *testing.T) {
	store := newMemStore(t,
		fixture{id: "a", title: "Email tone", owner: "u1", tags: []string{"sales"}, age: 1, vec: []float32{1, 0}},
		fixture{id: "b", title: "Email tone", owner: "u1", tags: []string{"support"}, age: 2, vec: []float32{1, 0}},
	)
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0))

	f, err := filter.New(filter.Params{Tags: []string{"support"}})
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	for _, m := range []mode.Mode{mode.Keyword, mode.FullText, mode.Semantic, mode.Hybrid} {
		req, err := request.New("email", m, f, 10, 0, "u1", false)
		if err != nil {
			t.Fatalf("request.New: %v", err)
		}
		resp, err := svc.Search(context.Background(), &req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", m, err)
		}
		expectIDs(t, resp, "b")
		if resp.Total() != 1 {
			t.Errorf("%s: expected total 1, got %d", m, resp.Total())
		}
	}
}

func TestSearch_OffsetBeyondTotal(t *testing.T) {
	for _, m := range []mode.Mode{mode.Keyword, mode.FullText, mode.Semantic, mode.Hybrid} {
		store := corpus(t)
		svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

		resp, err := svc.Search(context.Background(), newReq(t, "email", m, 10, 50, true))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", m, err)
		}
		if len(resp.Results()) != 0 {
			t.Errorf("%s: expected empty page, got %v", m, scoredIDs(resp))
		}
		if resp.Total() == 0 {
			t.Errorf("%s: expected total preserved past the last page", m)
		}
		if store.fetchCalls != 0 {
			t.Errorf("%s: empty page must not hydrate", m)
		}
	}
}

func TestSearch_Idempotent(t *testing.T) {
	store := corpus(t)
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

	first, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 10, 0, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 5 {
		again, err := svc.Search(context.Background(), newReq(t, "email", mode.Hybrid, 10, 0, true))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range again.Results() {
			if r.ID() != first.Results()[i].ID() || r.Score() != first.Results()[i].Score() {
				t.Fatalf("result %d differs between identical queries", i)
			}
		}
	}
}

func TestSearch_HydrationSkipsDeleted(t *testing.T) {
	store := corpus(t)
	store.hidden = map[string]bool{"t1": true}
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.FullText, 10, 0, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectIDs(t, resp, "t2")
}

func TestSearch_HydrationFailureKeepsScores(t *testing.T) {
	store := corpus(t)
	store.fetchErr = errBoom
	svc := newTestService(store, &memIndex{store: store}, fixedEmbedder(1, 0, 0))

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.FullText, 10, 0, false))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expectIDs(t, resp, "t1", "t2")
	if resp.Results()[0].Template() != nil {
		t.Error("expected no projection after failed hydration")
	}
}

func TestSearch_RecordsDuration(t *testing.T) {
	store := corpus(t)
	emb := &mockEmbedder{embedFn: func(context.Context, string) ([]float32, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, errBoom
	}}
	svc := newTestService(store, &memIndex{store: store}, emb)

	resp, err := svc.Search(context.Background(), newReq(t, "email", mode.Semantic, 10, 0, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Duration() < 5*time.Millisecond {
		t.Errorf("expected duration >= 5ms, got %v", resp.Duration())
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	svc := New(nil, nil, nil, Config{}, nil)
	def := DefaultConfig()
	if svc.cfg.RRFK != def.RRFK || svc.cfg.HybridWindow != def.HybridWindow || svc.cfg.SnippetWords != def.SnippetWords {
		t.Errorf("expected default config, got %+v", svc.cfg)
	}
	if svc.semantic.minSimilarity != DefaultMinSimilarity {
		t.Errorf("expected minSimilarity=%v, got %v", DefaultMinSimilarity, svc.semantic.minSimilarity)
	}
}

func TestNew_ExplicitZeroMinSimilarity(t *testing.T) {
	zero := 0.0
	svc := New(nil, nil, nil, Config{MinSimilarity: &zero}, nil)
	if svc.semantic.minSimilarity != 0 {
		t.Errorf("expected explicit minSimilarity=0 to be kept, got %v", svc.semantic.minSimilarity)
	}
}
