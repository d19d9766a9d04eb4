package kv

import (
	"context"
	"encoding/json"
)

// Repository is a small key/value store over one document collection.
// Values are JSON documents.
type Repository interface {
	// Get decodes the value under key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]json.RawMessage, error)
	Clear(ctx context.Context) error
}
