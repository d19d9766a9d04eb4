package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/netx"
	"github.com/samber/lo"
)

// RESTAdapter posts batches of operations to a generic sync endpoint that
// answers with {"success": [...], "failed": [...]}.
type RESTAdapter struct {
	name     string
	url      string
	envelope string
	client   *http.Client
	token    TokenSource
}

type RESTOption func(*RESTAdapter)

func WithHTTPClient(c *http.Client) RESTOption {
	return func(a *RESTAdapter) { a.client = c }
}

// WithToken makes the adapter send a bearer token and require one to
// authenticate.
func WithToken(ts TokenSource) RESTOption {
	return func(a *RESTAdapter) { a.token = ts }
}

func NewRESTAdapter(baseURL string, opts ...RESTOption) *RESTAdapter {
	return newREST("REST API", baseURL, "/api/sync", "operations", opts...)
}

// NewAdonisAdapter targets the versioned AdonisJS endpoint, which expects
// the batch under "ops".
func NewAdonisAdapter(baseURL string, opts ...RESTOption) *RESTAdapter {
	return newREST("AdonisJS", baseURL, "/api/v1/sync", "ops", opts...)
}

func newREST(name, baseURL, path, envelope string, opts ...RESTOption) *RESTAdapter {
	a := &RESTAdapter{
		name:     name,
		url:      strings.TrimRight(baseURL, "/") + path,
		envelope: envelope,
		client:   http.DefaultClient,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *RESTAdapter) Name() string { return a.name }

func (a *RESTAdapter) Authenticate(context.Context) (bool, error) {
	if a.token == nil {
		return true, nil
	}
	return a.token() != "", nil
}

type restResult struct {
	Success *[]string `json:"success"`
	Failed  *[]string `json:"failed"`
}

func (a *RESTAdapter) SendBatch(ctx context.Context, events []models.Event) (syncengine.BatchResult, error) {
	ops := lo.Map(events, func(e models.Event, _ int) Operation { return ToOperation(e) })

	var token string
	if a.token != nil {
		token = a.token()
	}

	var res restResult
	if err := netx.DoJSON(ctx, a.client, http.MethodPost, a.url, token, map[string]any{a.envelope: ops}, &res); err != nil {
		return syncengine.BatchResult{}, err
	}
	if res.Success == nil && res.Failed == nil {
		return syncengine.BatchResult{}, fmt.Errorf("%w: no success or failed list", syncengine.ErrInvalidBatchResult)
	}
	return syncengine.BatchResult{Success: lo.FromPtr(res.Success), Failed: lo.FromPtr(res.Failed)}, nil
}
