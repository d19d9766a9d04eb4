package syncengine

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// ErrInvalidBatchResult is returned by adapters when the remote answered
// with something that is not a batch result. Nothing is marked synced.
var ErrInvalidBatchResult = errors.New("invalid batch result")

// Adapter delivers batches of events to one kind of remote.
type Adapter interface {
	Name() string
	// Authenticate reports whether the adapter may send batches.
	Authenticate(ctx context.Context) (bool, error)
	// SendBatch delivers events and reports which ids the remote accepted.
	// An error means the outcome of the whole batch is unknown.
	SendBatch(ctx context.Context, events []models.Event) (BatchResult, error)
}

type BatchResult struct {
	Success []string `json:"success"`
	Failed  []string `json:"failed"`
}

// Outbox is the pending side of the event store.
type Outbox interface {
	GetOutbox(ctx context.Context) ([]models.Event, error)
	MarkSynced(ctx context.Context, ids []string) (int, error)
}

// EventIDs lists the ids of events in order.
func EventIDs(events []models.Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.EventID)
	}
	return ids
}

// confirmed returns the success ids that belong to the batch and are not
// also reported failed; everything else in Success is returned as ignored.
func confirmed(batch []models.Event, res BatchResult) (ok, ignored []string) {
	sent := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		sent[e.EventID] = struct{}{}
	}
	failed := make(map[string]struct{}, len(res.Failed))
	for _, id := range res.Failed {
		failed[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(res.Success))
	for _, id := range res.Success {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		_, inBatch := sent[id]
		_, isFailed := failed[id]
		if !inBatch || isFailed {
			ignored = append(ignored, id)
			continue
		}
		ok = append(ok, id)
	}
	return ok, ignored
}
