// Package projection folds event streams into read models.
//
// A Projector holds an explicit table of handlers keyed by the conventional
// handler name of an event type (POST_CREATED is handled by onPostCreated).
// Events without a handler are skipped, so streams written by newer clients
// still fold. Handlers are pure: they see only the state and the event.
package projection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// ErrMixedAggregates is returned when a stream contains events of more than
// one aggregate.
var ErrMixedAggregates = errors.New("event stream mixes aggregates")

// Handler applies one event to state and returns the new state. It must not
// mutate state in place or perform I/O.
type Handler[S any] func(state S, ev models.Event) S

type Projector[S any] struct {
	handlers map[string]Handler[S]
}

func New[S any]() *Projector[S] {
	return &Projector[S]{handlers: make(map[string]Handler[S])}
}

// On registers h for eventType and returns p for chaining.
func (p *Projector[S]) On(eventType string, h Handler[S]) *Projector[S] {
	p.handlers[HandlerName(eventType)] = h
	return p
}

// Handles reports whether a handler is registered for eventType.
func (p *Projector[S]) Handles(eventType string) bool {
	_, ok := p.handlers[HandlerName(eventType)]
	return ok
}

// Project folds events over initial in order. Starting from a checkpointed
// state and replaying the rest gives the same result as a full replay.
func (p *Projector[S]) Project(initial S, events []models.Event) (S, error) {
	state := initial
	if len(events) == 0 {
		return state, nil
	}
	first := events[0]
	for i, ev := range events {
		if ev.AggregateType != first.AggregateType || ev.AggregateID != first.AggregateID {
			return initial, fmt.Errorf("%w: event %d is %s/%s, stream is %s/%s", ErrMixedAggregates,
				i, ev.AggregateType, ev.AggregateID, first.AggregateType, first.AggregateID)
		}
		h, ok := p.handlers[HandlerName(ev.EventType)]
		if !ok {
			continue
		}
		state = h(state, ev)
	}
	return state, nil
}

// HandlerName converts an event type such as POST_CREATED into the handler
// name onPostCreated.
func HandlerName(eventType string) string {
	var sb strings.Builder
	sb.WriteString("on")
	for _, part := range strings.FieldsFunc(eventType, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		part = strings.ToLower(part)
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
