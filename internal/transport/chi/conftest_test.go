package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
)

// --- fakeSearcher ---

type fakeSearcher struct {
	searchFn func(ctx context.Context, req *request.Request) (result.Response, error)
	last     *request.Request
}

func (f *fakeSearcher) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	copied := *req
	f.last = &copied
	if f.searchFn != nil {
		return f.searchFn(ctx, req)
	}
	return result.NewResponse(nil, 0, req.Query(), req.Mode(), req.Filters(), 3*time.Millisecond), nil
}

// --- fakeHealth ---

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(_ context.Context) healthuc.Report { return f.report }

func newTestServer(t *testing.T, s *fakeSearcher) *Server {
	t.Helper()
	h := &fakeHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
	}}
	return NewServer(s, h, Limits{DefaultLimit: 20, MaxLimit: 50}, nil)
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func testTemplate(t *testing.T, id, title string) template.Template {
	t.Helper()
	tpl, err := template.New(template.Params{
		ID:         id,
		Title:      title,
		Body:       "body of " + title,
		Tags:       []string{"go"},
		Visibility: template.Shared,
		OwnerID:    "alice",
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Vector:     []float32{1, 0},
	})
	if err != nil {
		t.Fatalf("template.New: %v", err)
	}
	return tpl
}
