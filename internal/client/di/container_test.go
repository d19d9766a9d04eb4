package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/devcms/internal/client/config"
	"github.com/dmitrijs2005/devcms/internal/client/eventstore"
	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, adapter string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "di.db")
	cfg.ServerEndpointAddr = "http://127.0.0.1:1"
	cfg.SyncAdapter = adapter
	return cfg
}

func TestSetupContainer_WiresPostsToOutbox(t *testing.T) {
	i := SetupContainer(testConfig(t, config.AdapterREST), logging.Nop())
	t.Cleanup(func() { require.NoError(t, Close(i)) })

	posts := do.MustInvoke[services.PostService](i)
	_, err := posts.CreatePost(context.Background(), services.PostInput{Title: "Wired"})
	require.NoError(t, err)

	pending, err := do.MustInvoke[*eventstore.EventStore](i).GetOutbox(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	se := do.MustInvoke[*syncengine.Engine](i)
	require.NotNil(t, se.Adapter())
	assert.Equal(t, "REST API", se.Adapter().Name())

	for _, fn := range []func() error{
		func() error { _, err := do.Invoke[services.AuthService](i); return err },
		func() error { _, err := do.Invoke[services.MenuService](i); return err },
		func() error { _, err := do.Invoke[services.DashboardService](i); return err },
		func() error { _, err := do.Invoke[services.StatsService](i); return err },
		func() error { _, err := do.Invoke[services.TableService](i); return err },
	} {
		require.NoError(t, fn())
	}
}

func TestNewAdapter_Selection(t *testing.T) {
	tests := []struct {
		adapter string
		name    string
		wantErr bool
	}{
		{adapter: config.AdapterREST, name: "REST API"},
		{adapter: config.AdapterEvents, name: "CMS events"},
		{adapter: config.AdapterGRPC, name: "gRPC"},
		{adapter: config.AdapterNone},
		{adapter: "smoke", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.adapter, func(t *testing.T) {
			i := SetupContainer(testConfig(t, tt.adapter), logging.Nop())
			t.Cleanup(func() { _ = Close(i) })

			a, err := do.Invoke[syncengine.Adapter](i)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.name == "" {
				assert.Nil(t, a)
				return
			}
			assert.Equal(t, tt.name, a.Name())
		})
	}
}

func TestClose_OnlyConstructed(t *testing.T) {
	i := SetupContainer(testConfig(t, config.AdapterNATS), logging.Nop())
	// nothing invoked, so no NATS connection is attempted
	require.NoError(t, Close(i))
}
