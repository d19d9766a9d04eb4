// Package dashboards stores per-dashboard widget layouts in the local store.
package dashboards

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/common"
)

type LocalRepository struct {
	tx *localdb.Tx
}

func NewLocalRepository(tx *localdb.Tx) *LocalRepository {
	return &LocalRepository{tx: tx}
}

func (r *LocalRepository) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	c, err := r.tx.Collection(localdb.Dashboards)
	if err != nil {
		return nil, err
	}
	var d models.Dashboard
	err = c.Get(ctx, id, &d)
	if errors.Is(err, localdb.ErrNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard %s: %w", id, err)
	}
	return &d, nil
}

func (r *LocalRepository) Save(ctx context.Context, d models.Dashboard) error {
	c, err := r.tx.Collection(localdb.Dashboards)
	if err != nil {
		return err
	}
	if _, err := c.Put(ctx, d); err != nil {
		return fmt.Errorf("failed to save dashboard %s: %w", d.ID, err)
	}
	return nil
}

func (r *LocalRepository) Delete(ctx context.Context, id string) (bool, error) {
	c, err := r.tx.Collection(localdb.Dashboards)
	if err != nil {
		return false, err
	}
	return c.Delete(ctx, id)
}

func (r *LocalRepository) List(ctx context.Context) ([]models.Dashboard, error) {
	c, err := r.tx.Collection(localdb.Dashboards)
	if err != nil {
		return nil, err
	}
	docs, err := c.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	return localdb.Decode[models.Dashboard](docs, nil), nil
}
