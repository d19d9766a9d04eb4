// Package eventstore appends domain events to the local log and exposes the
// outbox that drives synchronization.
//
// Event ids and timestamps are assigned here; callers never supply them.
// Each write lands in the log and the outbox in one transaction.
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/events"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/google/uuid"
)

// ErrInvalidEvent is returned for input that cannot form a valid event.
var ErrInvalidEvent = models.ErrInvalidEvent

// Store is the transactional access the event store needs;
// *localdb.Engine satisfies it.
type Store interface {
	View(ctx context.Context, fn func(ctx context.Context, tx *localdb.Tx) error) error
	Update(ctx context.Context, fn func(ctx context.Context, tx *localdb.Tx) error) error
}

type EventStore struct {
	store  Store
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*EventStore)

func WithClock(now func() time.Time) Option {
	return func(s *EventStore) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *EventStore) { s.newID = gen }
}

func New(store Store, logger logging.Logger, opts ...Option) *EventStore {
	s := &EventStore{
		store:  store,
		logger: logger.With("component", "eventstore"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *EventStore) repo(tx *localdb.Tx) events.Repository {
	return events.NewLocalRepository(tx, s.logger)
}

// WriteEvent assigns an id and a timestamp to in and appends it to the log
// and the outbox atomically.
func (s *EventStore) WriteEvent(ctx context.Context, in models.EventInput) (models.Event, error) {
	switch {
	case in.AggregateID == "":
		return models.Event{}, errors.Join(ErrInvalidEvent, errors.New("aggregateId is required"))
	case in.AggregateType == "":
		return models.Event{}, errors.Join(ErrInvalidEvent, errors.New("aggregateType is required"))
	case in.EventType == "":
		return models.Event{}, errors.Join(ErrInvalidEvent, errors.New("eventType is required"))
	case in.Version < 0:
		return models.Event{}, errors.Join(ErrInvalidEvent, errors.New("version must not be negative"))
	}

	payload := in.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	ev := models.Event{
		EventID:       s.newID(),
		AggregateID:   in.AggregateID,
		AggregateType: in.AggregateType,
		EventType:     in.EventType,
		Payload:       payload,
		Version:       in.Version,
		Timestamp:     models.FormatTimestamp(s.now()),
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		return s.repo(tx).Append(ctx, ev)
	})
	if err != nil {
		return models.Event{}, err
	}
	s.logger.Debug(ctx, "event written", "event_id", ev.EventID, "type", ev.EventType, "aggregate", ev.AggregateID)
	return ev, nil
}

// ReadEvents returns one aggregate's stream in ascending timestamp order;
// an unknown aggregate yields an empty stream.
func (s *EventStore) ReadEvents(ctx context.Context, aggregateType, aggregateID string) ([]models.Event, error) {
	var out []models.Event
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		out, err = s.repo(tx).ForAggregate(ctx, aggregateType, aggregateID)
		return err
	})
	return out, err
}

// ReadStreams returns every stream of aggregateType keyed by aggregate id.
func (s *EventStore) ReadStreams(ctx context.Context, aggregateType string) (map[string][]models.Event, error) {
	var out map[string][]models.Event
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		out, err = s.repo(tx).ByType(ctx, aggregateType)
		return err
	})
	return out, err
}

// ReadAll returns the whole log in timestamp order.
func (s *EventStore) ReadAll(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		out, err = s.repo(tx).All(ctx)
		return err
	})
	return out, err
}

// GetOutbox returns the events still waiting for remote confirmation.
func (s *EventStore) GetOutbox(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		entries, err := s.repo(tx).Pending(ctx)
		if err != nil {
			return err
		}
		out = make([]models.Event, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Event)
		}
		return nil
	})
	return out, err
}

// MarkSynced flags the named outbox entries as confirmed. Repeating the
// call is a no-op.
func (s *EventStore) MarkSynced(ctx context.Context, ids []string) (int, error) {
	var n int
	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		n, err = s.repo(tx).MarkSynced(ctx, ids)
		return err
	})
	return n, err
}

// RemoveFromOutbox deletes the named outbox entries; the log keeps them.
func (s *EventStore) RemoveFromOutbox(ctx context.Context, ids []string) (int, error) {
	var n int
	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		n, err = s.repo(tx).RemoveFromOutbox(ctx, ids)
		return err
	})
	return n, err
}

// PruneSynced drops confirmed entries from the outbox.
func (s *EventStore) PruneSynced(ctx context.Context) (int, error) {
	var n int
	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		n, err = s.repo(tx).PruneSynced(ctx)
		return err
	})
	if err == nil && n > 0 {
		s.logger.Info(ctx, "pruned synced outbox entries", "count", n)
	}
	return n, err
}
