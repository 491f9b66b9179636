package template

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/promptdex/internal/db"
	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// store is the consumer interface for templates (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsTextSearch(ctx context.Context) bool
}

// Repo stores templates as hashes and implements usecase/search.DocumentStore.
type Repo struct {
	store store
}

// New creates a template repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert creates or replaces a template. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, t *domtpl.Template) (bool, error) {
	key := Key(t.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.HSet(ctx, key, buildHashFields(t)); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}

	return !exists, nil
}

// UpsertMany writes templates in one pipelined round-trip.
func (r *Repo) UpsertMany(ctx context.Context, ts []domtpl.Template) error {
	items := make([]db.HashSetItem, len(ts))
	for i := range ts {
		items[i] = db.HashSetItem{Key: Key(ts[i].ID()), Fields: buildHashFields(&ts[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// Get returns a template by ID.
func (r *Repo) Get(ctx context.Context, id string) (domtpl.Template, error) {
	key := Key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	t, ok := parseHashFields(id, m)
	if !ok {
		return domtpl.Template{}, domain.ErrNotFound
	}
	return t, nil
}

// Delete removes a template. Deleting a missing template returns domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := Key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Fetch hydrates templates in the order of ids. Missing ids are skipped.
func (r *Repo) Fetch(ctx context.Context, ids []string) ([]domtpl.Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch %d templates: %w", len(ids), err)
	}

	out := make([]domtpl.Template, 0, len(ids))
	for i, m := range hashes {
		if t, ok := parseHashFields(ids[i], m); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Candidates returns every accessible template that carries an embedding.
func (r *Repo) Candidates(ctx context.Context, pred access.Predicate) ([]lookup.Candidate, error) {
	all, err := r.loadAccessible(ctx, pred)
	if err != nil {
		return nil, err
	}

	out := make([]lookup.Candidate, 0, len(all))
	for i := range all {
		t := &all[i]
		if len(t.Vector()) == 0 {
			continue
		}
		out = append(out, lookup.Candidate{ID: t.ID(), Vector: t.Vector(), CreatedAt: t.CreatedAt()})
	}
	return out, nil
}

// FindSubstring scans accessible templates for a case-insensitive substring of
// the title (and body unless TitleOnly), newest first.
func (r *Repo) FindSubstring(ctx context.Context, q lookup.SubstringQuery) ([]string, int, error) {
	all, err := r.loadAccessible(ctx, q.Predicate)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(q.Needle)
	matched := make([]*domtpl.Template, 0, len(all))
	for i := range all {
		t := &all[i]
		if strings.Contains(strings.ToLower(t.Title()), needle) ||
			(!q.TitleOnly && strings.Contains(strings.ToLower(t.Body()), needle)) {
			matched = append(matched, t)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID() < b.ID()
	})

	total := len(matched)
	if q.Offset >= total || q.Limit <= 0 {
		return []string{}, total, nil
	}
	end := min(q.Offset+q.Limit, total)

	ids := make([]string, 0, end-q.Offset)
	for _, t := range matched[q.Offset:end] {
		ids = append(ids, t.ID())
	}
	return ids, total, nil
}

// loadAccessible scans the whole keyspace and keeps what the predicate allows.
func (r *Repo) loadAccessible(ctx context.Context, pred access.Predicate) ([]domtpl.Template, error) {
	keys, err := r.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan templates: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d templates: %w", len(keys), err)
	}

	out := make([]domtpl.Template, 0, len(hashes))
	for i, m := range hashes {
		t, ok := parseHashFields(IDFromKey(keys[i]), m)
		if !ok || !pred.Allows(&t) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// EnsureIndex builds the ranked text index if it is missing. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	if !r.store.SupportsTextSearch(ctx) {
		return false, fmt.Errorf("ensure index %s: %w", IndexName, db.ErrTextSearchUnsupported)
	}

	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", IndexName, err)
	}
	if exists {
		return false, nil
	}

	if err := r.store.CreateIndex(ctx, buildIndex()); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return true, nil
}

// IndexReady reports whether ranked text search can be served. A store without
// the search module is never ready.
func (r *Repo) IndexReady(ctx context.Context) (bool, error) {
	if !r.store.SupportsTextSearch(ctx) {
		return false, nil
	}
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", IndexName, err)
	}
	return exists, nil
}
