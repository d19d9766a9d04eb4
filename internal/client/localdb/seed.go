package localdb

import (
	"context"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// DefaultAdmin is the identity seeded into an empty superadmin collection.
var DefaultAdmin = models.Identity{
	ID:       "default-admin",
	Email:    "admin@devcms.local",
	FullName: "Super Admin",
	Role:     "superadmin",
}

// DefaultMenuID identifies the seeded navigation menu.
const DefaultMenuID = "main-navigation"

// seed inserts default records into empty collections. Running it on a
// seeded store writes nothing.
func seed(ctx context.Context, tx *Tx, now time.Time) error {
	admins, err := tx.Collection(SuperAdmin)
	if err != nil {
		return err
	}
	if n, err := admins.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		if _, err := admins.Add(ctx, DefaultAdmin); err != nil {
			return err
		}
	}

	menus, err := tx.Collection(Menus)
	if err != nil {
		return err
	}
	if n, err := menus.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		ts := models.FormatTimestamp(now)
		_, err := menus.Add(ctx, models.Menu{
			ID:    DefaultMenuID,
			Name:  "Main Navigation",
			Order: 0,
			Items: []models.MenuItem{
				{ID: "home", Label: "Home", URL: "/"},
				{ID: "blog", Label: "Blog", URL: "/blog"},
			},
			CreatedAt: ts,
			UpdatedAt: ts,
		})
		return err
	}
	return nil
}
