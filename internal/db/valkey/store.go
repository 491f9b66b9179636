// Package valkey adapts the rueidis store to Valkey servers without the search module.
package valkey

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/promptdex/internal/db"
	"github.com/kailas-cloud/promptdex/internal/db/redis"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Valkey store.
type Config = redis.Config

// Store shares the hash layer with the Redis store but has no ranked text index.
// Full-text queries against it always take the substring fallback.
type Store struct {
	*redis.Store
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	inner, err := redis.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("valkey: %w", err)
	}
	return &Store{Store: inner}, nil
}

// SupportsTextSearch reports false: plain Valkey has no TEXT fields.
func (s *Store) SupportsTextSearch(_ context.Context) bool {
	return false
}

// CreateIndex refuses: there is no FT module to build an index in.
func (s *Store) CreateIndex(_ context.Context, _ *db.IndexDefinition) error {
	return &db.Error{Op: db.OpCreateIndex, Err: db.ErrTextSearchUnsupported}
}

// IndexExists reports false without a round-trip.
func (s *Store) IndexExists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// SearchText reports the index as missing so callers fall back.
func (s *Store) SearchText(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
	return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
}
