package promptdex

import (
	"context"
	"strings"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// --- templateStore mock ---

type mockTemplates struct {
	upsertFn      func(ctx context.Context, t *domtpl.Template) (bool, error)
	upsertManyFn  func(ctx context.Context, ts []domtpl.Template) error
	getFn         func(ctx context.Context, id string) (domtpl.Template, error)
	deleteFn      func(ctx context.Context, id string) error
	ensureIndexFn func(ctx context.Context) (bool, error)
}

func (m *mockTemplates) Upsert(ctx context.Context, t *domtpl.Template) (bool, error) {
	return m.upsertFn(ctx, t)
}

func (m *mockTemplates) UpsertMany(ctx context.Context, ts []domtpl.Template) error {
	return m.upsertManyFn(ctx, ts)
}

func (m *mockTemplates) Get(ctx context.Context, id string) (domtpl.Template, error) {
	return m.getFn(ctx, id)
}

func (m *mockTemplates) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockTemplates) EnsureIndex(ctx context.Context) (bool, error) {
	return m.ensureIndexFn(ctx)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) (result.Response, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	return m.searchFn(ctx, req)
}

// --- embedders ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// topicEmbedder points texts mentioning "review" along one axis and everything else along another.
type topicEmbedder struct {
	texts []string
}

func (e *topicEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.texts = append(e.texts, text)
	if strings.Contains(strings.ToLower(text), "review") {
		return EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}
	return EmbeddingResult{Embedding: []float32{0, 1}}, nil
}

// --- helpers ---

func testClient(templates templateStore, searchSvc searchUseCase) *Client {
	return &Client{templates: templates, searchSvc: searchSvc, now: time.Now}
}
