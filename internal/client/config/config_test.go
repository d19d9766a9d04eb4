package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3333", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 5*time.Second, c.SyncInterval)
	assert.Equal(t, 2*time.Second, c.APITimeout)
	assert.Equal(t, time.Second, c.ProbeTimeout)
	assert.Equal(t, 5*time.Minute, c.APICacheTTL)
	assert.Equal(t, AdapterREST, c.SyncAdapter)
	require.NoError(t, c.Validate())
}

func TestLoad_NoArgsUsesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "devcms.db", cfg.DatabasePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "unknown adapter", mutate: func(c *Config) { c.SyncAdapter = "carrier-pigeon" }, wantErr: "unknown sync_adapter"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.SyncAdapter = AdapterPostgres }, wantErr: "requires postgres_dsn"},
		{name: "postgres with dsn", mutate: func(c *Config) { c.SyncAdapter = AdapterPostgres; c.PostgresDSN = "postgres://x" }},
		{name: "empty db path", mutate: func(c *Config) { c.DatabasePath = "" }, wantErr: "database_path"},
		{name: "zero interval", mutate: func(c *Config) { c.SyncInterval = 0 }, wantErr: "positive"},
		{name: "none", mutate: func(c *Config) { c.SyncAdapter = AdapterNone }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
