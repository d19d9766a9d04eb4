package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/devcms/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-d", "-s", "-content", "-log-level"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string          remote base URL
//	-i int             online check interval in seconds
//	-d string          local database path
//	-s string          sync adapter
//	-content string    markdown content directory
//	-log-level string  debug, info, warn or error
//
// Arguments other than these are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("devcms", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "remote base URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.SyncAdapter, "s", cfg.SyncAdapter, "sync adapter")
	fs.StringVar(&cfg.ContentDir, "content", cfg.ContentDir, "markdown content directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
