package config

import (
	"fmt"
	"os"
	"time"
)

// Sync adapter names accepted by SyncAdapter.
const (
	AdapterREST     = "rest"
	AdapterEvents   = "events"
	AdapterGRPC     = "grpc"
	AdapterNATS     = "nats"
	AdapterPostgres = "postgres"
	AdapterNone     = "none"
)

// Config holds runtime settings for the devcms client and admin tool.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	SyncTimeout         time.Duration
	APITimeout          time.Duration
	ProbeTimeout        time.Duration
	APICacheTTL         time.Duration

	DatabasePath string
	ContentDir   string
	ExportDir    string

	SyncAdapter string
	GRPCAddr    string
	NATSURL     string
	NATSStream  string
	PostgresDSN string

	LogLevel  string
	LogFormat string

	S3Region    string
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:3333"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 5 * time.Second
	c.SyncTimeout = 5 * time.Second
	c.APITimeout = 2 * time.Second
	c.ProbeTimeout = time.Second
	c.APICacheTTL = 5 * time.Minute
	c.DatabasePath = "devcms.db"
	c.ExportDir = "exports"
	c.SyncAdapter = AdapterREST
	c.GRPCAddr = "127.0.0.1:50051"
	c.NATSURL = "nats://127.0.0.1:4222"
	c.NATSStream = "DEVCMS_EVENTS"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.SyncAdapter {
	case AdapterREST, AdapterEvents, AdapterGRPC, AdapterNATS, AdapterNone:
	case AdapterPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("sync_adapter %q requires postgres_dsn", c.SyncAdapter)
		}
	default:
		return fmt.Errorf("unknown sync_adapter %q", c.SyncAdapter)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is empty")
	}
	if c.OnlineCheckInterval <= 0 || c.SyncInterval <= 0 {
		return fmt.Errorf("check and sync intervals must be positive")
	}
	return nil
}

// Load builds a Config from defaults, then the config file named by -c or
// -config in args (if any), then the remaining command-line flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on error.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
