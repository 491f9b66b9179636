package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/promptdex/internal/db"
)

// SearchText runs a ranked FT.SEARCH with per-hit scores.
// A missing index surfaces as db.ErrIndexNotFound so callers can fall back.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	args, err := buildSearchArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndex(err) {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw)
}

func buildSearchArgs(q *db.TextQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Query == "" {
		return nil, errors.New("query is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, errors.New("offset and limit must not be negative")
	}

	args := []string{q.IndexName, q.Query, "WITHSCORES"}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if sm := q.Summarize; sm != nil {
		args = append(args, "SUMMARIZE")
		if len(sm.Fields) > 0 {
			args = append(args, "FIELDS", strconv.Itoa(len(sm.Fields)))
			args = append(args, sm.Fields...)
		}
		if sm.Frags > 0 {
			args = append(args, "FRAGS", strconv.Itoa(sm.Frags))
		}
		if sm.Len > 0 {
			args = append(args, "LEN", strconv.Itoa(sm.Len))
		}
		if sm.Separator != "" {
			args = append(args, "SEPARATOR", sm.Separator)
		}
	}

	if hl := q.Highlight; hl != nil {
		args = append(args, "HIGHLIGHT")
		if len(hl.Fields) > 0 {
			args = append(args, "FIELDS", strconv.Itoa(len(hl.Fields)))
			args = append(args, hl.Fields...)
		}
		if hl.Open != "" || hl.Close != "" {
			args = append(args, "TAGS", hl.Open, hl.Close)
		}
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
	return args, nil
}

// --- Result parsing ---

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
