package adapters

import (
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// TokenSource returns the current bearer token, or "" when signed out.
type TokenSource func() string

// Operation is the wire form of an event for operation-based endpoints.
type Operation struct {
	ID          string         `json:"id"`
	Table       string         `json:"table"`
	Action      string         `json:"action"`
	AggregateID string         `json:"aggregateId"`
	EventType   string         `json:"eventType"`
	Payload     map[string]any `json:"payload"`
	Version     int            `json:"version"`
	CreatedAt   int64          `json:"createdAt"`
}

// Action values.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ToOperation maps an event onto an operation. The action is derived from
// the event type suffix.
func ToOperation(ev models.Event) Operation {
	action := ActionUpdate
	switch {
	case strings.HasSuffix(ev.EventType, "_CREATED"):
		action = ActionCreate
	case strings.HasSuffix(ev.EventType, "_DELETED"):
		action = ActionDelete
	}
	return Operation{
		ID:          ev.EventID,
		Table:       ev.AggregateType,
		Action:      action,
		AggregateID: ev.AggregateID,
		EventType:   ev.EventType,
		Payload:     ev.Payload,
		Version:     ev.Version,
		CreatedAt:   ev.Time().UnixMilli(),
	}
}

// toJSONMap round-trips v through JSON so that it only holds JSON-native
// values.
func toJSONMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
