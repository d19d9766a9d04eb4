package events

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

// LocalRepository implements Repository on the events and outbox
// collections of the local store.
type LocalRepository struct {
	tx     *localdb.Tx
	logger logging.Logger
}

func NewLocalRepository(tx *localdb.Tx, logger logging.Logger) *LocalRepository {
	return &LocalRepository{tx: tx, logger: logger}
}

func (r *LocalRepository) Append(ctx context.Context, ev models.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	log, err := r.tx.Collection(localdb.Events)
	if err != nil {
		return err
	}
	outbox, err := r.tx.Collection(localdb.Outbox)
	if err != nil {
		return err
	}

	if _, err := log.Add(ctx, ev); err != nil {
		return fmt.Errorf("failed to append event %s: %w", ev.EventID, err)
	}
	if _, err := outbox.Add(ctx, models.OutboxEntry{Event: ev}); err != nil {
		return fmt.Errorf("failed to queue event %s: %w", ev.EventID, err)
	}
	return nil
}

func (r *LocalRepository) ForAggregate(ctx context.Context, aggregateType, aggregateID string) ([]models.Event, error) {
	return r.find(ctx, localdb.Query{
		Where: []localdb.Cond{
			{Field: "aggregateType", Value: aggregateType},
			{Field: "aggregateId", Value: aggregateID},
		},
		OrderBy: []string{"timestamp"},
	})
}

func (r *LocalRepository) ByType(ctx context.Context, aggregateType string) (map[string][]models.Event, error) {
	list, err := r.find(ctx, localdb.Query{
		Where:   []localdb.Cond{{Field: "aggregateType", Value: aggregateType}},
		OrderBy: []string{"timestamp"},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Event)
	for _, ev := range list {
		out[ev.AggregateID] = append(out[ev.AggregateID], ev)
	}
	return out, nil
}

func (r *LocalRepository) All(ctx context.Context) ([]models.Event, error) {
	return r.find(ctx, localdb.Query{OrderBy: []string{"timestamp"}})
}

func (r *LocalRepository) find(ctx context.Context, q localdb.Query) ([]models.Event, error) {
	log, err := r.tx.Collection(localdb.Events)
	if err != nil {
		return nil, err
	}
	docs, err := log.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	list := localdb.Decode[models.Event](docs, r.skip(ctx))
	return Normalize(ctx, r.logger, list), nil
}

func (r *LocalRepository) Pending(ctx context.Context) ([]models.OutboxEntry, error) {
	outbox, err := r.tx.Collection(localdb.Outbox)
	if err != nil {
		return nil, err
	}
	docs, err := outbox.Find(ctx, localdb.Query{
		Where:   []localdb.Cond{{Field: "synced", Value: 0}},
		OrderBy: []string{"timestamp"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}

	entries := localdb.Decode[models.OutboxEntry](docs, r.skip(ctx))
	out := entries[:0]
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			r.logger.Warn(ctx, "skipping invalid outbox entry", "event_id", e.EventID, "err", err)
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time().Before(out[j].Time()) })
	return out, nil
}

func (r *LocalRepository) MarkSynced(ctx context.Context, ids []string) (int, error) {
	outbox, err := r.tx.Collection(localdb.Outbox)
	if err != nil {
		return 0, err
	}
	var n int
	for _, id := range ids {
		var e models.OutboxEntry
		err := outbox.Get(ctx, id, &e)
		if errors.Is(err, localdb.ErrNotFound) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("failed to load outbox entry %s: %w", id, err)
		}
		if e.Synced == 1 {
			continue
		}
		e.Synced = 1
		if err := outbox.PutKey(ctx, id, e); err != nil {
			return n, fmt.Errorf("failed to mark %s synced: %w", id, err)
		}
		n++
	}
	return n, nil
}

func (r *LocalRepository) RemoveFromOutbox(ctx context.Context, ids []string) (int, error) {
	outbox, err := r.tx.Collection(localdb.Outbox)
	if err != nil {
		return 0, err
	}
	var n int
	for _, id := range ids {
		ok, err := outbox.Delete(ctx, id)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (r *LocalRepository) PruneSynced(ctx context.Context) (int, error) {
	outbox, err := r.tx.Collection(localdb.Outbox)
	if err != nil {
		return 0, err
	}
	docs, err := outbox.Find(ctx, localdb.Query{Where: []localdb.Cond{{Field: "synced", Value: 1}}})
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Key)
	}
	return r.RemoveFromOutbox(ctx, ids)
}

func (r *LocalRepository) skip(ctx context.Context) func(string, error) {
	return func(key string, err error) {
		r.logger.Warn(ctx, "skipping malformed event", "key", key, "err", err)
	}
}

// Normalize drops invalid events and duplicate ids (first occurrence wins)
// and sorts the rest by timestamp, keeping input order for equal times.
func Normalize(ctx context.Context, logger logging.Logger, list []models.Event) []models.Event {
	seen := make(map[string]struct{}, len(list))
	out := make([]models.Event, 0, len(list))
	for _, ev := range list {
		if err := ev.Validate(); err != nil {
			logger.Warn(ctx, "skipping invalid event", "event_id", ev.EventID, "err", err)
			continue
		}
		if _, dup := seen[ev.EventID]; dup {
			continue
		}
		seen[ev.EventID] = struct{}{}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time().Before(out[j].Time()) })
	return out
}
