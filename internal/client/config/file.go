package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/devcms/internal/flagx"
	"github.com/dmitrijs2005/devcms/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape shared by the JSON, TOML and YAML
// loaders. Durations accept strings like "3s".
type fileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" toml:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" toml:"online_check_interval" yaml:"online_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval" toml:"sync_interval" yaml:"sync_interval"`
	SyncTimeout         timex.Duration `json:"sync_timeout" toml:"sync_timeout" yaml:"sync_timeout"`
	APITimeout          timex.Duration `json:"api_timeout" toml:"api_timeout" yaml:"api_timeout"`
	ProbeTimeout        timex.Duration `json:"probe_timeout" toml:"probe_timeout" yaml:"probe_timeout"`
	APICacheTTL         timex.Duration `json:"api_cache_ttl" toml:"api_cache_ttl" yaml:"api_cache_ttl"`
	DatabasePath        string         `json:"database_path" toml:"database_path" yaml:"database_path"`
	ContentDir          string         `json:"content_dir" toml:"content_dir" yaml:"content_dir"`
	ExportDir           string         `json:"export_dir" toml:"export_dir" yaml:"export_dir"`
	SyncAdapter         string         `json:"sync_adapter" toml:"sync_adapter" yaml:"sync_adapter"`
	GRPCAddr            string         `json:"grpc_addr" toml:"grpc_addr" yaml:"grpc_addr"`
	NATSURL             string         `json:"nats_url" toml:"nats_url" yaml:"nats_url"`
	NATSStream          string         `json:"nats_stream" toml:"nats_stream" yaml:"nats_stream"`
	PostgresDSN         string         `json:"postgres_dsn" toml:"postgres_dsn" yaml:"postgres_dsn"`
	LogLevel            string         `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFormat           string         `json:"log_format" toml:"log_format" yaml:"log_format"`
	S3Region            string         `json:"s3_region" toml:"s3_region" yaml:"s3_region"`
	S3Endpoint          string         `json:"s3_endpoint" toml:"s3_endpoint" yaml:"s3_endpoint"`
	S3Bucket            string         `json:"s3_bucket" toml:"s3_bucket" yaml:"s3_bucket"`
	S3AccessKey         string         `json:"s3_access_key" toml:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key" toml:"s3_secret_key" yaml:"s3_secret_key"`
}

// parseFile overlays cfg with the file named by -c/-config in args. Keys
// missing from the file keep their current values.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFromArgs(args)
	if path == "" {
		return nil
	}
	return LoadFile(cfg, path)
}

// LoadFile overlays cfg with path, decoded by extension.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := fromConfig(cfg)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	fc.apply(cfg)
	return nil
}

func fromConfig(c *Config) fileConfig {
	return fileConfig{
		ServerEndpointAddr:  c.ServerEndpointAddr,
		OnlineCheckInterval: timex.Duration{Duration: c.OnlineCheckInterval},
		SyncInterval:        timex.Duration{Duration: c.SyncInterval},
		SyncTimeout:         timex.Duration{Duration: c.SyncTimeout},
		APITimeout:          timex.Duration{Duration: c.APITimeout},
		ProbeTimeout:        timex.Duration{Duration: c.ProbeTimeout},
		APICacheTTL:         timex.Duration{Duration: c.APICacheTTL},
		DatabasePath:        c.DatabasePath,
		ContentDir:          c.ContentDir,
		ExportDir:           c.ExportDir,
		SyncAdapter:         c.SyncAdapter,
		GRPCAddr:            c.GRPCAddr,
		NATSURL:             c.NATSURL,
		NATSStream:          c.NATSStream,
		PostgresDSN:         c.PostgresDSN,
		LogLevel:            c.LogLevel,
		LogFormat:           c.LogFormat,
		S3Region:            c.S3Region,
		S3Endpoint:          c.S3Endpoint,
		S3Bucket:            c.S3Bucket,
		S3AccessKey:         c.S3AccessKey,
		S3SecretKey:         c.S3SecretKey,
	}
}

func (fc fileConfig) apply(c *Config) {
	c.ServerEndpointAddr = fc.ServerEndpointAddr
	c.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	c.SyncInterval = fc.SyncInterval.Duration
	c.SyncTimeout = fc.SyncTimeout.Duration
	c.APITimeout = fc.APITimeout.Duration
	c.ProbeTimeout = fc.ProbeTimeout.Duration
	c.APICacheTTL = fc.APICacheTTL.Duration
	c.DatabasePath = fc.DatabasePath
	c.ContentDir = fc.ContentDir
	c.ExportDir = fc.ExportDir
	c.SyncAdapter = fc.SyncAdapter
	c.GRPCAddr = fc.GRPCAddr
	c.NATSURL = fc.NATSURL
	c.NATSStream = fc.NATSStream
	c.PostgresDSN = fc.PostgresDSN
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	c.S3Region = fc.S3Region
	c.S3Endpoint = fc.S3Endpoint
	c.S3Bucket = fc.S3Bucket
	c.S3AccessKey = fc.S3AccessKey
	c.S3SecretKey = fc.S3SecretKey
}
