// Package menus stores navigation menus in the local store.
package menus

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

func (r *LocalRepository) List(ctx context.Context) ([]models.Menu, error) {
	c, err := r.tx.Collection(localdb.Menus)
	if err != nil {
		return nil, err
	}
	docs, err := c.Find(ctx, localdb.Query{OrderBy: []string{"order"}})
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	return localdb.Decode[models.Menu](docs, nil), nil
}

func (r *LocalRepository) Get(ctx context.Context, id string) (*models.Menu, error) {
	c, err := r.tx.Collection(localdb.Menus)
	if err != nil {
		return nil, err
	}
	var m models.Menu
	err = c.Get(ctx, id, &m)
	if errors.Is(err, localdb.ErrNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu %s: %w", id, err)
	}
	return &m, nil
}

func (r *LocalRepository) Save(ctx context.Context, m models.Menu) error {
	c, err := r.tx.Collection(localdb.Menus)
	if err != nil {
		return err
	}
	if _, err := c.Put(ctx, m); err != nil {
		return fmt.Errorf("failed to save menu %s: %w", m.ID, err)
	}
	return nil
}

func (r *LocalRepository) Delete(ctx context.Context, id string) (bool, error) {
	c, err := r.tx.Collection(localdb.Menus)
	if err != nil {
		return false, err
	}
	return c.Delete(ctx, id)
}
