package sqlite

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// templateColumns is the projection read by scanTemplate, in order.
const templateColumns = `t.id, t.title, t.body, t.tags, t.visibility, t.usage_count,
	t.created_at, t.updated_at, t.owner_id, t.author_id, t.workspace_id, t.vector`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(r rowScanner) (domtpl.Template, error) {
	var (
		p                domtpl.Params
		tagsJSON         string
		visibility       string
		created, updated int64
		vector           []byte
	)
	if err := r.Scan(
		&p.ID, &p.Title, &p.Body, &tagsJSON, &visibility, &p.UsageCount,
		&created, &updated, &p.OwnerID, &p.AuthorID, &p.WorkspaceID, &vector,
	); err != nil {
		return domtpl.Template{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return domtpl.Template{}, fmt.Errorf("decode tags of %s: %w", p.ID, err)
	}
	p.Visibility = domtpl.Visibility(visibility)
	p.CreatedAt = timeFromMillis(created)
	p.UpdatedAt = timeFromMillis(updated)
	p.Vector = decodeVector(vector)
	return domtpl.Reconstruct(p), nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// encodeVector stores float32 little-endian; an empty vector is stored as NULL.
func encodeVector(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// lowerASCII folds only ASCII letters, matching SQLite's built-in lower().
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
