// Package di wires the client components into a samber/do container.
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/dmitrijs2005/devcms/internal/client/adapters"
	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/config"
	"github.com/dmitrijs2005/devcms/internal/client/content"
	"github.com/dmitrijs2005/devcms/internal/client/eventstore"
	"github.com/dmitrijs2005/devcms/internal/client/export"
	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/samber/do/v2"
)

// SetupContainer registers every provider. Nothing is constructed until
// first invoked.
func SetupContainer(cfg *config.Config, logger logging.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, &closers{})

	do.Provide(injector, NewEngine)
	do.Provide(injector, NewEventStore)
	do.Provide(injector, NewClient)
	do.Provide(injector, NewWatcher)
	do.Provide(injector, NewAdapter)
	do.Provide(injector, NewSyncEngine)

	do.Provide(injector, NewAuthService)
	do.Provide(injector, NewPostService)
	do.Provide(injector, NewMenuService)
	do.Provide(injector, NewDashboardService)
	do.Provide(injector, NewStatsService)
	do.Provide(injector, NewTableService)
	do.Provide(injector, NewImporter)
	do.Provide(injector, NewExporter)

	return injector
}

// closers collects release funcs of constructed resources.
type closers struct {
	mu  sync.Mutex
	fns []func() error
}

func (c *closers) add(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

func NewEngine(i do.Injector) (*localdb.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	e := localdb.New(cfg.DatabasePath, do.MustInvoke[logging.Logger](i),
		localdb.WithProbeTimeout(cfg.ProbeTimeout))
	do.MustInvoke[*closers](i).add(e.Close)
	return e, nil
}

func NewEventStore(i do.Injector) (*eventstore.EventStore, error) {
	return eventstore.New(do.MustInvoke[*localdb.Engine](i), do.MustInvoke[logging.Logger](i)), nil
}

func NewClient(i do.Injector) (*client.HTTPClient, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return client.NewHTTPClient(cfg.ServerEndpointAddr, &http.Client{Timeout: max(cfg.APITimeout, cfg.SyncTimeout)}), nil
}

func NewWatcher(i do.Injector) (*syncengine.Watcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return syncengine.NewWatcher(do.MustInvoke[*client.HTTPClient](i), cfg.OnlineCheckInterval,
		do.MustInvoke[logging.Logger](i)), nil
}

// NewAdapter builds the adapter named by sync_adapter. "none" yields a nil
// adapter, which leaves the outbox untouched.
func NewAdapter(i do.Injector) (syncengine.Adapter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	c := do.MustInvoke[*client.HTTPClient](i)
	cl := do.MustInvoke[*closers](i)
	httpc := &http.Client{Timeout: cfg.SyncTimeout}

	switch cfg.SyncAdapter {
	case config.AdapterREST:
		return adapters.NewRESTAdapter(cfg.ServerEndpointAddr,
			adapters.WithHTTPClient(httpc), adapters.WithToken(c.Token)), nil
	case config.AdapterEvents:
		return adapters.NewEventsAdapter(cfg.ServerEndpointAddr, httpc, c.Token), nil
	case config.AdapterGRPC:
		a, err := adapters.DialGRPC(cfg.GRPCAddr, c.Token)
		if err != nil {
			return nil, err
		}
		cl.add(a.Close)
		return a, nil
	case config.AdapterNATS:
		a, err := adapters.ConnectJetStream(cfg.NATSURL, cfg.NATSStream)
		if err != nil {
			return nil, err
		}
		cl.add(func() error { a.Close(); return nil })
		return a, nil
	case config.AdapterPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
		defer cancel()
		a, err := adapters.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		cl.add(a.Close)
		return a, nil
	case config.AdapterNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown sync_adapter %q", cfg.SyncAdapter)
}

// NewSyncEngine also subscribes the engine to the watcher's reconnects.
func NewSyncEngine(i do.Injector) (*syncengine.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	adapter, err := do.Invoke[syncengine.Adapter](i)
	if err != nil {
		return nil, err
	}
	w := do.MustInvoke[*syncengine.Watcher](i)

	e := syncengine.New(do.MustInvoke[*eventstore.EventStore](i), do.MustInvoke[logging.Logger](i),
		syncengine.WithAdapter(adapter),
		syncengine.WithInterval(cfg.SyncInterval),
		syncengine.WithTimeout(cfg.SyncTimeout),
		syncengine.WithConnectivity(w.Online),
	)
	w.OnReconnect(e)
	return e, nil
}

func NewAuthService(i do.Injector) (services.AuthService, error) {
	return services.NewAuthService(do.MustInvoke[*client.HTTPClient](i), do.MustInvoke[*localdb.Engine](i),
		do.MustInvoke[logging.Logger](i)), nil
}

func NewPostService(i do.Injector) (services.PostService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	se, err := do.Invoke[*syncengine.Engine](i)
	if err != nil {
		return nil, err
	}
	w := do.MustInvoke[*syncengine.Watcher](i)

	opts := []services.PostOption{
		services.WithConnectivity(w.Online),
		services.WithAfterWrite(se.Trigger),
		services.WithAPITimeout(cfg.APITimeout),
		services.WithPostsCache(do.MustInvoke[*localdb.Engine](i), cfg.APICacheTTL),
	}
	if cfg.ContentDir != "" {
		opts = append(opts, services.WithContentDir(cfg.ContentDir))
	}
	return services.NewPostService(do.MustInvoke[*eventstore.EventStore](i), do.MustInvoke[*client.HTTPClient](i),
		do.MustInvoke[logging.Logger](i), opts...), nil
}

func NewMenuService(i do.Injector) (services.MenuService, error) {
	return services.NewMenuService(do.MustInvoke[*localdb.Engine](i)), nil
}

func NewDashboardService(i do.Injector) (services.DashboardService, error) {
	return services.NewDashboardService(do.MustInvoke[*localdb.Engine](i)), nil
}

func NewStatsService(i do.Injector) (services.StatsService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	w := do.MustInvoke[*syncengine.Watcher](i)
	return services.NewStatsService(do.MustInvoke[*client.HTTPClient](i), do.MustInvoke[*localdb.Engine](i),
		w.Online, cfg.APITimeout, do.MustInvoke[logging.Logger](i)), nil
}

func NewTableService(i do.Injector) (services.TableService, error) {
	return services.NewTableService(do.MustInvoke[*localdb.Engine](i)), nil
}

func NewImporter(i do.Injector) (*content.Importer, error) {
	return content.NewImporter(do.MustInvoke[*eventstore.EventStore](i), do.MustInvoke[logging.Logger](i)), nil
}

func NewExporter(i do.Injector) (*export.Exporter, error) {
	return export.New(do.MustInvoke[*localdb.Engine](i), do.MustInvoke[*eventstore.EventStore](i),
		do.MustInvoke[logging.Logger](i)), nil
}

// Close releases what the container opened, most recent first. Providers
// that were never invoked opened nothing.
func Close(i do.Injector) error {
	c := do.MustInvoke[*closers](i)
	c.mu.Lock()
	fns := slices.Clone(c.fns)
	c.fns = nil
	c.mu.Unlock()

	var errs []error
	for _, fn := range slices.Backward(fns) {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}
