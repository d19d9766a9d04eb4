package models

import (
	"errors"
	"time"
)

// Event types and aggregate types known to the client.
const (
	AggregatePost = "post"

	EventPostCreated     = "POST_CREATED"
	EventPostUpdated     = "POST_UPDATED"
	EventPostPublished   = "POST_PUBLISHED"
	EventPostUnpublished = "POST_UNPUBLISHED"
	EventPostDeleted     = "POST_DELETED"
)

// TimestampLayout is RFC 3339 in UTC with millisecond precision, so that
// lexical order of stored timestamps matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrInvalidEvent = errors.New("invalid event")

// Event is an immutable domain event. EventID is the idempotency key for
// local inserts, outbox removal and remote deduplication.
type Event struct {
	EventID       string         `json:"eventId"`
	AggregateID   string         `json:"aggregateId"`
	AggregateType string         `json:"aggregateType"`
	EventType     string         `json:"eventType"`
	Payload       map[string]any `json:"payload"`
	Version       int            `json:"version"`
	Timestamp     string         `json:"timestamp"`
}

// Validate checks the fields every persisted event must carry.
func (e Event) Validate() error {
	switch {
	case e.EventID == "":
		return errors.Join(ErrInvalidEvent, errors.New("empty eventId"))
	case e.AggregateID == "":
		return errors.Join(ErrInvalidEvent, errors.New("empty aggregateId"))
	case e.AggregateType == "":
		return errors.Join(ErrInvalidEvent, errors.New("empty aggregateType"))
	case e.EventType == "":
		return errors.Join(ErrInvalidEvent, errors.New("empty eventType"))
	}
	if _, ok := ParseTimestamp(e.Timestamp); !ok {
		return errors.Join(ErrInvalidEvent, errors.New("bad timestamp "+e.Timestamp))
	}
	return nil
}

// Time returns the parsed timestamp or the zero time.
func (e Event) Time() time.Time {
	t, _ := ParseTimestamp(e.Timestamp)
	return t
}

// OutboxEntry is an Event pending confirmation by the remote. Synced is 0
// while pending and 1 once confirmed; it never goes back to 0.
type OutboxEntry struct {
	Event
	Synced int `json:"synced"`
}

// EventInput is what callers supply to append an event; the id and the
// timestamp are assigned on the write path.
type EventInput struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	Version       int
}

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 (any fractional precision) and plain
// dates as written in front matter.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
