package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	dbsqlite "github.com/kailas-cloud/promptdex/internal/db/sqlite"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestRepo opens a fresh database under t.TempDir without the FTS index.
func newTestRepo(t *testing.T) (*Repo, *dbsqlite.Store) {
	t.Helper()
	s, err := dbsqlite.Open(context.Background(), filepath.Join(t.TempDir(), "promptdex.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s), s
}

// newIndexedRepo is newTestRepo with the FTS index built.
func newIndexedRepo(t *testing.T) *Repo {
	t.Helper()
	repo, _ := newTestRepo(t)
	if _, err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	return repo
}

func testTemplate(t *testing.T, id string, mutate func(p *domtpl.Params)) domtpl.Template {
	t.Helper()
	p := domtpl.Params{
		ID:         id,
		Title:      "Untitled",
		Body:       "Nothing to see.",
		Visibility: domtpl.Private,
		CreatedAt:  baseTime,
		OwnerID:    "alice",
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

func seed(t *testing.T, repo *Repo, ts ...domtpl.Template) {
	t.Helper()
	if err := repo.UpsertMany(context.Background(), ts); err != nil {
		t.Fatalf("seed: %v", err)
	}
}
