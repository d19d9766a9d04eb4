package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...Option) (*EventStore, *localdb.Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "es.db")
	e := localdb.New(path, logging.Nop())
	t.Cleanup(func() { _ = e.Close() })
	return New(e, logging.Nop(), opts...), e, path
}

func stepClock(start time.Time, step time.Duration) func() time.Time {
	cur := start
	return func() time.Time {
		t := cur
		cur = cur.Add(step)
		return t
	}
}

func TestWriteEvent_AssignsIDAndTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3*3600))
	s, _, _ := setup(t, WithClock(func() time.Time { return now }))

	ev, err := s.WriteEvent(context.Background(), models.EventInput{
		AggregateID:   "p1",
		AggregateType: models.AggregatePost,
		EventType:     models.EventPostCreated,
		Version:       1,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(ev.EventID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T09:00:00.123Z", ev.Timestamp)
	assert.NotNil(t, ev.Payload)
}

func TestWriteEvent_RejectsBadInput(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   models.EventInput
	}{
		{"no aggregate id", models.EventInput{AggregateType: "post", EventType: "X"}},
		{"no aggregate type", models.EventInput{AggregateID: "p1", EventType: "X"}},
		{"no event type", models.EventInput{AggregateID: "p1", AggregateType: "post"}},
		{"negative version", models.EventInput{AggregateID: "p1", AggregateType: "post", EventType: "X", Version: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.WriteEvent(ctx, tt.in)
			require.ErrorIs(t, err, ErrInvalidEvent)
		})
	}

	all, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestScenario_CreateOfflineThenSync(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	ev, err := s.WriteEvent(ctx, models.EventInput{
		AggregateID:   "p1",
		AggregateType: models.AggregatePost,
		EventType:     models.EventPostCreated,
		Payload:       map[string]any{"id": "p1", "title": "T"},
		Version:       1,
	})
	require.NoError(t, err)

	stream, err := s.ReadEvents(ctx, models.AggregatePost, "p1")
	require.NoError(t, err)
	require.Len(t, stream, 1)
	assert.Equal(t, ev.EventID, stream[0].EventID)
	assert.Equal(t, "T", stream[0].Payload["title"])

	outbox, err := s.GetOutbox(ctx)
	require.NoError(t, err)
	require.Len(t, outbox, 1)
	assert.Equal(t, ev.EventID, outbox[0].EventID)

	n, err := s.MarkSynced(ctx, []string{ev.EventID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	outbox, err = s.GetOutbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, outbox)

	stream, err = s.ReadEvents(ctx, models.AggregatePost, "p1")
	require.NoError(t, err)
	assert.Len(t, stream, 1)
}

func TestReadEvents_EmptyForUnknownAggregate(t *testing.T) {
	s, _, _ := setup(t)
	stream, err := s.ReadEvents(context.Background(), models.AggregatePost, "nope")
	require.NoError(t, err)
	assert.Empty(t, stream)
}

func TestReadEvents_AscendingAcrossAppends(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	s, _, _ := setup(t,
		WithClock(stepClock(base, time.Millisecond)),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("ev-%02d", n) }),
	)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.WriteEvent(ctx, models.EventInput{
			AggregateID: "p1", AggregateType: models.AggregatePost, EventType: models.EventPostUpdated, Version: i + 1,
		})
		require.NoError(t, err)
	}
	_, err := s.WriteEvent(ctx, models.EventInput{AggregateID: "p2", AggregateType: models.AggregatePost, EventType: models.EventPostCreated})
	require.NoError(t, err)

	stream, err := s.ReadEvents(ctx, models.AggregatePost, "p1")
	require.NoError(t, err)
	require.Len(t, stream, 5)
	for i, ev := range stream {
		assert.Equal(t, i+1, ev.Version)
	}

	streams, err := s.ReadStreams(ctx, models.AggregatePost)
	require.NoError(t, err)
	assert.Len(t, streams, 2)
}

func TestRemoveFromOutbox_KeepsLogAndIsIdempotent(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	ev, err := s.WriteEvent(ctx, models.EventInput{AggregateID: "p1", AggregateType: "post", EventType: models.EventPostCreated})
	require.NoError(t, err)

	n, err := s.RemoveFromOutbox(ctx, []string{ev.EventID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.RemoveFromOutbox(ctx, []string{ev.EventID})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	outbox, err := s.GetOutbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, outbox)

	all, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPruneSynced(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	a, err := s.WriteEvent(ctx, models.EventInput{AggregateID: "p1", AggregateType: "post", EventType: models.EventPostCreated})
	require.NoError(t, err)
	_, err = s.WriteEvent(ctx, models.EventInput{AggregateID: "p2", AggregateType: "post", EventType: models.EventPostCreated})
	require.NoError(t, err)

	_, err = s.MarkSynced(ctx, []string{a.EventID})
	require.NoError(t, err)

	n, err := s.PruneSynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	outbox, err := s.GetOutbox(ctx)
	require.NoError(t, err)
	assert.Len(t, outbox, 1)
}

func TestWriteEvent_LogAndOutboxAreAtomic(t *testing.T) {
	s, e, path := setup(t)
	ctx := context.Background()
	require.NoError(t, e.Open(ctx))

	raw, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	_, err = raw.Exec(`DROP TABLE outbox`)
	require.NoError(t, err)

	_, err = s.WriteEvent(ctx, models.EventInput{AggregateID: "p1", AggregateType: "post", EventType: models.EventPostCreated})
	require.Error(t, err)

	var n int
	require.NoError(t, raw.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n))
	assert.Zero(t, n, "the log write must roll back with the outbox write")
}
