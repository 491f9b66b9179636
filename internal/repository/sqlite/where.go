package sqlite

import (
	"strings"

	"github.com/kailas-cloud/promptdex/internal/domain/search/access"
	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// whereClause compiles an access predicate into SQL over the templates alias t.
// The result always starts with the access clause, so it is never empty.
func whereClause(pred access.Predicate) (string, []any) {
	var (
		alts  = []string{"t.owner_id = ?"}
		args  = []any{pred.RequesterID()}
		parts []string
	)
	if pred.IncludeShared() {
		alts = append(alts, "t.visibility IN (?, ?)")
		args = append(args, string(domtpl.Shared), string(domtpl.Public))
	}
	if ws := pred.WorkspaceID(); ws != "" {
		alts = append(alts, "t.workspace_id = ?")
		args = append(args, ws)
	}
	parts = append(parts, "("+strings.Join(alts, " OR ")+")")

	f := pred.Filters()
	if tags := f.Tags(); len(tags) > 0 {
		parts = append(parts, "EXISTS (SELECT 1 FROM template_tags tt WHERE tt.template_id = t.id AND tt.tag IN ("+
			placeholders(len(tags))+"))")
		for _, tag := range tags {
			args = append(args, tag)
		}
	}
	if v := f.Visibility(); v != "" {
		parts = append(parts, "t.visibility = ?")
		args = append(args, string(v))
	}
	lo, hi := f.CreatedRangeMillis()
	if lo != nil {
		parts = append(parts, "t.created_at >= ?")
		args = append(args, *lo)
	}
	if hi != nil {
		parts = append(parts, "t.created_at <= ?")
		args = append(args, *hi)
	}
	if m := f.MinUsage(); m != nil {
		parts = append(parts, "t.usage_count >= ?")
		args = append(args, *m)
	}
	if a := f.AuthorID(); a != "" {
		parts = append(parts, "t.author_id = ?")
		args = append(args, a)
	}

	return strings.Join(parts, " AND "), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// matchExpr renders terms as an FTS5 prefix-AND expression: "go"* AND "sql"*.
// Single-rune terms match exactly.
func matchExpr(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted := `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
		if len([]rune(term)) >= minPrefixLen {
			quoted += "*"
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " AND ")
}
