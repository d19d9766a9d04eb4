// Package admin is the cobra command tree of the devcms admin tool. It
// operates on the same local database as the interactive client.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/devcms/internal/client/config"
	"github.com/dmitrijs2005/devcms/internal/client/di"
	"github.com/dmitrijs2005/devcms/internal/client/render"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/fatih/color"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the container built from them.
type RootOptions struct {
	ConfigPath string
	Database   string
	Adapter    string
	Format     string

	cfg      *config.Config
	injector do.Injector
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devcms-admin",
		Short:         "devcms admin tool",
		Long:          "Manage the local devcms store: dynamic tables, content import, export, outbox and sync.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.json, .toml, .yaml)")
	cmd.PersistentFlags().StringVarP(&opts.Database, "db", "d", "", "local database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Adapter, "adapter", "", "sync adapter (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewOutboxCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))

	return cmd
}

// Execute runs the command tree with args and releases the container
// afterwards.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	opts := &RootOptions{}
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if opts.injector != nil {
		if cerr := di.Close(opts.injector); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (o *RootOptions) setup(logOut io.Writer) error {
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	if o.ConfigPath != "" {
		if err := config.LoadFile(cfg, o.ConfigPath); err != nil {
			return err
		}
	}
	if o.Database != "" {
		cfg.DatabasePath = o.Database
	}
	if o.Adapter != "" {
		cfg.SyncAdapter = o.Adapter
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.injector = di.SetupContainer(cfg, logging.New(logOut, cfg.LogFormat, cfg.LogLevel))
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) printer(cmd *cobra.Command) *render.Printer {
	return render.New(cmd.OutOrStdout(), render.WithColor(!color.NoColor))
}

// emit writes v as JSON in json format and calls text otherwise.
func (o *RootOptions) emit(cmd *cobra.Command, v any, text func(p *render.Printer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(o.printer(cmd))
	return nil
}
