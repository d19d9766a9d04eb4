// Package services contains the application services of the devcms client:
// session handling, posts, menus, dashboards, the stats cache and dynamic
// tables. Services decide fallbacks; storage and transport only report
// errors.
package services

import (
	"context"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
)

// Store is transactional access to the local store; *localdb.Engine
// satisfies it.
type Store interface {
	View(ctx context.Context, fn func(ctx context.Context, tx *localdb.Tx) error) error
	Update(ctx context.Context, fn func(ctx context.Context, tx *localdb.Tx) error) error
}
