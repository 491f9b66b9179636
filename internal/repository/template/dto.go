package template

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	domtpl "github.com/kailas-cloud/promptdex/internal/domain/template"
)

// Hash field names. The text index reads title, body and tag_text; the rest are filters.
const (
	FieldTitle       = "title"
	FieldBody        = "body"
	FieldTags        = "tags"
	FieldTagText     = "tag_text"
	FieldVisibility  = "visibility"
	FieldUsageCount  = "usage_count"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldOwnerID     = "owner_id"
	FieldAuthorID    = "author_id"
	FieldWorkspaceID = "workspace_id"
	FieldVector      = "vector"
)

// tagSeparator joins tags inside the TAG field.
const tagSeparator = ","

// buildHashFields flattens a Template for HSET. Every field is written so an
// update never leaves a stale value behind.
func buildHashFields(t *domtpl.Template) map[string]string {
	return map[string]string{
		FieldTitle:       t.Title(),
		FieldBody:        t.Body(),
		FieldTags:        strings.Join(t.Tags(), tagSeparator),
		FieldTagText:     strings.Join(t.Tags(), " "),
		FieldVisibility:  string(t.Visibility()),
		FieldUsageCount:  strconv.Itoa(t.UsageCount()),
		FieldCreatedAt:   strconv.FormatInt(t.CreatedAt().UnixMilli(), 10),
		FieldUpdatedAt:   strconv.FormatInt(t.UpdatedAt().UnixMilli(), 10),
		FieldOwnerID:     t.OwnerID(),
		FieldAuthorID:    t.AuthorID(),
		FieldWorkspaceID: t.WorkspaceID(),
		FieldVector:      vectorToBytes(t.Vector()),
	}
}

// parseHashFields rebuilds a Template from a hash. ok is false for an empty
// hash, which is what HGETALL returns for a missing key.
func parseHashFields(id string, m map[string]string) (domtpl.Template, bool) {
	if len(m) == 0 {
		return domtpl.Template{}, false
	}

	var tags []string
	if raw := m[FieldTags]; raw != "" {
		tags = strings.Split(raw, tagSeparator)
	}
	usage, _ := strconv.Atoi(m[FieldUsageCount])

	return domtpl.Reconstruct(domtpl.Params{
		ID:          id,
		Title:       m[FieldTitle],
		Body:        m[FieldBody],
		Tags:        tags,
		Visibility:  domtpl.Visibility(m[FieldVisibility]),
		UsageCount:  usage,
		CreatedAt:   parseMillis(m[FieldCreatedAt]),
		UpdatedAt:   parseMillis(m[FieldUpdatedAt]),
		OwnerID:     m[FieldOwnerID],
		AuthorID:    m[FieldAuthorID],
		WorkspaceID: m[FieldWorkspaceID],
		Vector:      bytesToVector(m[FieldVector]),
	}), true
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
