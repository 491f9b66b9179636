// Package sqlite stores templates in an embedded SQLite database and serves
// both the document store and the ranked text index from it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dbsqlite "github.com/kailas-cloud/promptdex/internal/db/sqlite"
	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	"github.com/kailas-cloud/promptdex/internal/domain/search/lookup"
	"github.com/kailas-cloud/promptdex/internal/domain/search/ranked"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// rankExpr weights FTS5 columns title, body, tags. bm25 is lower-is-better.
const rankExpr = "bm25(templates_fts, 10.0, 5.0, 1.0)"

// maxSnippetTokens is the FTS5 snippet() ceiling.
const maxSnippetTokens = 64

// minPrefixLen is the shortest term expanded to a prefix query.
const minPrefixLen = 2

// store is the consumer interface for the SQLite backend (ISP).
type store interface {
	DB() *sql.DB
	CreateTextIndex(ctx context.Context) (bool, error)
	TextIndexExists(ctx context.Context) (bool, error)
}

// Repo implements usecase/search.DocumentStore and usecase/search.RankedTextSearch.
type Repo struct {
	store store
	db    *sql.DB
}

// New creates a SQLite template repository.
func New(s store) *Repo {
	return &Repo{store: s, db: s.DB()}
}

// EnsureIndex builds the FTS5 index if it is missing. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	created, err := r.store.CreateTextIndex(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	return created, nil
}

// IndexReady reports whether the FTS5 index exists.
func (r *Repo) IndexReady(ctx context.Context) (bool, error) {
	ok, err := r.store.TextIndexExists(ctx)
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	return ok, nil
}

// Upsert creates or replaces a template. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, t *domtpl.Template) (bool, error) {
	var created bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates WHERE id = ?`, t.ID()).Scan(&n); err != nil {
			return fmt.Errorf("check exists %s: %w", t.ID(), err)
		}
		created = n == 0
		return upsertTx(ctx, tx, t)
	})
	return created, err
}

// UpsertMany writes templates in a single transaction.
func (r *Repo) UpsertMany(ctx context.Context, ts []domtpl.Template) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for i := range ts {
			if err := upsertTx(ctx, tx, &ts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertTx(ctx context.Context, tx *sql.Tx, t *domtpl.Template) error {
	tags, err := encodeTags(t.Tags())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO templates (id, title, body, tags, visibility, usage_count,
			created_at, updated_at, owner_id, author_id, workspace_id, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			tags = excluded.tags,
			visibility = excluded.visibility,
			usage_count = excluded.usage_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			owner_id = excluded.owner_id,
			author_id = excluded.author_id,
			workspace_id = excluded.workspace_id,
			vector = excluded.vector
	`, t.ID(), t.Title(), t.Body(), tags, string(t.Visibility()), t.UsageCount(),
		t.CreatedAt().UnixMilli(), t.UpdatedAt().UnixMilli(),
		t.OwnerID(), t.AuthorID(), t.WorkspaceID(), encodeVector(t.Vector()))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", t.ID(), err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM template_tags WHERE template_id = ?`, t.ID()); err != nil {
		return fmt.Errorf("clear tags %s: %w", t.ID(), err)
	}
	for _, tag := range t.Tags() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO template_tags (template_id, tag) VALUES (?, ?)`, t.ID(), tag,
		); err != nil {
			return fmt.Errorf("insert tag %s/%s: %w", t.ID(), tag, err)
		}
	}
	return nil
}

// Get returns a template by ID.
func (r *Repo) Get(ctx context.Context, id string) (domtpl.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates t WHERE t.id = ?`, id)
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domtpl.Template{}, domain.ErrNotFound
		}
		return domtpl.Template{}, fmt.Errorf("get %s: %w", id, err)
	}
	return t, nil
}

// Delete removes a template and its tags.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Fetch hydrates templates in the order of ids. Missing ids are skipped.
func (r *Repo) Fetch(ctx context.Context, ids []string) ([]domtpl.Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates t WHERE t.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %d templates: %w", len(ids), err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]domtpl.Template, len(ids))
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		byID[t.ID()] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch %d templates: %w", len(ids), err)
	}

	out := make([]domtpl.Template, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Candidates returns every accessible template that carries an embedding.
func (r *Repo) Candidates(ctx context.Context, pred access.Predicate) ([]lookup.Candidate, error) {
	where, args := whereClause(pred)
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.vector, t.created_at FROM templates t WHERE t.vector IS NOT NULL AND `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lookup.Candidate
	for rows.Next() {
		var (
			id      string
			vector  []byte
			created int64
		)
		if err := rows.Scan(&id, &vector, &created); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		v := decodeVector(vector)
		if len(v) == 0 {
			continue
		}
		out = append(out, lookup.Candidate{ID: id, Vector: v, CreatedAt: timeFromMillis(created)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	return out, nil
}

// FindSubstring returns accessible templates whose title (and body unless
// TitleOnly) contains the needle case-insensitively, newest first.
func (r *Repo) FindSubstring(ctx context.Context, q lookup.SubstringQuery) ([]string, int, error) {
	where, args := whereClause(q.Predicate)
	needle := lowerASCII(q.Needle)

	match := `instr(lower(t.title), ?) > 0`
	matchArgs := []any{needle}
	if !q.TitleOnly {
		match = `(instr(lower(t.title), ?) > 0 OR instr(lower(t.body), ?) > 0)`
		matchArgs = append(matchArgs, needle)
	}
	cond := match + ` AND ` + where
	condArgs := append(matchArgs, args...)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM templates t WHERE `+cond, condArgs...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count substring matches: %w", err)
	}
	if q.Offset >= total || q.Limit <= 0 {
		return []string{}, total, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id FROM templates t WHERE `+cond+` ORDER BY t.created_at DESC, t.id ASC LIMIT ? OFFSET ?`,
		append(condArgs, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("find substring: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids, err := scanIDs(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("find substring: %w", err)
	}
	return ids, total, nil
}

// SearchText runs an FTS5 prefix-AND query ranked by weighted bm25.
// A missing FTS table reports domain.ErrIndexUnavailable.
func (r *Repo) SearchText(ctx context.Context, q lookup.TextQuery) (ranked.Page, error) {
	if len(q.Terms) == 0 {
		return ranked.Page{}, nil
	}

	where, args := whereClause(q.Predicate)
	cond := `templates_fts MATCH ? AND ` + where
	condArgs := append([]any{matchExpr(q.Terms)}, args...)
	from := ` FROM templates_fts JOIN templates t ON t.seq = templates_fts.rowid WHERE `

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+cond, condArgs...).Scan(&total); err != nil {
		return ranked.Page{}, mapSearchErr(err)
	}
	if q.Offset >= total || q.Limit <= 0 {
		return ranked.Page{Hits: ranked.List{}, Total: total}, nil
	}

	snippet := `''`
	var selectArgs []any
	if q.SnippetWords > 0 {
		snippet = `snippet(templates_fts, 1, '<b>', '</b>', '…', ?)`
		selectArgs = append(selectArgs, min(q.SnippetWords, maxSnippetTokens))
	}

	query := `SELECT t.id, -` + rankExpr + `, ` + snippet + from + cond +
		` ORDER BY ` + rankExpr + `, t.created_at DESC, t.id ASC LIMIT ? OFFSET ?`
	allArgs := append(append(selectArgs, condArgs...), q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, allArgs...)
	if err != nil {
		return ranked.Page{}, mapSearchErr(err)
	}
	defer func() { _ = rows.Close() }()

	hits := make(ranked.List, 0, q.Limit)
	for rows.Next() {
		var h ranked.Hit
		if err := rows.Scan(&h.ID, &h.Score, &h.Snippet); err != nil {
			return ranked.Page{}, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return ranked.Page{}, mapSearchErr(err)
	}
	return ranked.Page{Hits: hits, Total: total}, nil
}

func mapSearchErr(err error) error {
	if dbsqlite.IsMissingTable(err) {
		return fmt.Errorf("search text: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return fmt.Errorf("search text: %w", err)
}

func (r *Repo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
