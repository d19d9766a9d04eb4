package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/netx"
	"github.com/samber/lo"
)

// EventsAdapter posts raw events to the CMS backend. A 2xx answer without
// a "synced" list confirms the whole batch.
type EventsAdapter struct {
	url    string
	client *http.Client
	token  TokenSource
}

func NewEventsAdapter(baseURL string, client *http.Client, token TokenSource) *EventsAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &EventsAdapter{
		url:    strings.TrimRight(baseURL, "/") + "/api/events/sync",
		client: client,
		token:  token,
	}
}

func (a *EventsAdapter) Name() string { return "CMS events" }

func (a *EventsAdapter) Authenticate(context.Context) (bool, error) {
	return true, nil
}

type eventsResult struct {
	Synced *[]string `json:"synced"`
}

func (a *EventsAdapter) SendBatch(ctx context.Context, events []models.Event) (syncengine.BatchResult, error) {
	var token string
	if a.token != nil {
		token = a.token()
	}

	var res eventsResult
	if err := netx.DoJSON(ctx, a.client, http.MethodPost, a.url, token, map[string]any{"events": events}, &res); err != nil {
		return syncengine.BatchResult{}, err
	}

	ids := syncengine.EventIDs(events)
	if res.Synced == nil {
		return syncengine.BatchResult{Success: ids}, nil
	}
	failed, _ := lo.Difference(ids, *res.Synced)
	return syncengine.BatchResult{Success: *res.Synced, Failed: failed}, nil
}
