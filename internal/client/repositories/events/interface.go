package events

import (
	"context"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// Repository describes the event log and outbox operations.
type Repository interface {
	// Append writes ev to the log and queues it in the outbox. Appending an
	// id that already exists leaves both copies unchanged.
	Append(ctx context.Context, ev models.Event) error

	// ForAggregate returns one aggregate's stream in ascending timestamp order.
	ForAggregate(ctx context.Context, aggregateType, aggregateID string) ([]models.Event, error)

	// ByType returns every stream of an aggregate type keyed by aggregate id.
	ByType(ctx context.Context, aggregateType string) (map[string][]models.Event, error)

	// All returns the whole log in ascending timestamp order.
	All(ctx context.Context) ([]models.Event, error)

	// Pending returns outbox entries that are not yet synced.
	Pending(ctx context.Context) ([]models.OutboxEntry, error)

	// MarkSynced flags the named outbox entries synced and reports how many
	// changed state.
	MarkSynced(ctx context.Context, ids []string) (int, error)

	// RemoveFromOutbox deletes the named outbox entries; the log keeps them.
	RemoveFromOutbox(ctx context.Context, ids []string) (int, error)

	// PruneSynced deletes outbox entries already flagged synced.
	PruneSynced(ctx context.Context) (int, error)
}
