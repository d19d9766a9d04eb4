// Package kv stores keyed documents such as the session record and the
// stats cache in a collection of the local store.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
)

// Well-known keys.
const (
	SessionKey     = "session"
	CredentialsKey = "credentials"
	StatsKey       = "admin_stats"
	PostsCacheKey  = "api_posts"
)

type LocalRepository struct {
	tx         *localdb.Tx
	collection string
}

// NewLocalRepository binds the repository to the named collection, e.g.
// localdb.Auth or localdb.Stats.
func NewLocalRepository(tx *localdb.Tx, collection string) *LocalRepository {
	return &LocalRepository{tx: tx, collection: collection}
}

func (r *LocalRepository) Get(ctx context.Context, key string, dst any) (bool, error) {
	c, err := r.tx.Collection(r.collection)
	if err != nil {
		return false, err
	}
	err = c.Get(ctx, key, dst)
	if errors.Is(err, localdb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s[%s]: %w", r.collection, key, err)
	}
	return true, nil
}

func (r *LocalRepository) Set(ctx context.Context, key string, value any) error {
	c, err := r.tx.Collection(r.collection)
	if err != nil {
		return err
	}
	if err := c.PutKey(ctx, key, value); err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.collection, key, err)
	}
	return nil
}

func (r *LocalRepository) Delete(ctx context.Context, key string) error {
	c, err := r.tx.Collection(r.collection)
	if err != nil {
		return err
	}
	if _, err := c.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.collection, key, err)
	}
	return nil
}

func (r *LocalRepository) List(ctx context.Context) (map[string]json.RawMessage, error) {
	c, err := r.tx.Collection(r.collection)
	if err != nil {
		return nil, err
	}
	docs, err := c.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.collection, err)
	}
	out := make(map[string]json.RawMessage, len(docs))
	for _, d := range docs {
		out[d.Key] = d.Raw
	}
	return out, nil
}

func (r *LocalRepository) Clear(ctx context.Context) error {
	c, err := r.tx.Collection(r.collection)
	if err != nil {
		return err
	}
	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.collection, err)
	}
	return nil
}
