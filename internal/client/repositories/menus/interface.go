package menus

import (
	"context"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// Repository persists navigation menus.
type Repository interface {
	// List returns all menus by ascending Order.
	List(ctx context.Context) ([]models.Menu, error)
	Get(ctx context.Context, id string) (*models.Menu, error)
	Save(ctx context.Context, m models.Menu) error
	// Delete reports whether the menu existed.
	Delete(ctx context.Context, id string) (bool, error)
}
