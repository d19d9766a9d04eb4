package dashboards

import (
	"context"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// Repository persists dashboard layouts keyed by dashboard slug.
type Repository interface {
	// Get returns common.ErrorNotFound when no layout has been saved.
	Get(ctx context.Context, id string) (*models.Dashboard, error)
	Save(ctx context.Context, d models.Dashboard) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]models.Dashboard, error)
}
