package admin

import (
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/eventstore"
	"github.com/dmitrijs2005/devcms/internal/client/render"
	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func NewOutboxCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect pending events",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List events waiting for remote confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := do.MustInvoke[*eventstore.EventStore](opts.injector).GetOutbox(cmd.Context())
			if err != nil {
				return err
			}
			return opts.emit(cmd, pending, func(p *render.Printer) { p.Events("Outbox", pending) })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove confirmed entries from the outbox; the event log is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := do.MustInvoke[*eventstore.EventStore](opts.injector).PruneSynced(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d synced entries\n", n)
			return nil
		},
	})
	return cmd
}

func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the outbox to the configured adapter once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := do.MustInvoke[services.AuthService](opts.injector).Restore(ctx); err != nil {
				return err
			}
			se, err := do.Invoke[*syncengine.Engine](opts.injector)
			if err != nil {
				return err
			}
			do.MustInvoke[*syncengine.Watcher](opts.injector).Check(ctx)

			rep := se.SyncOnce(ctx)
			if err := opts.emit(cmd, syncReport(rep), func(p *render.Printer) { p.SyncReport(rep) }); err != nil {
				return err
			}
			return rep.Err
		},
	}
}

type syncReportJSON struct {
	Adapter string   `json:"adapter"`
	Skipped string   `json:"skipped,omitempty"`
	Sent    int      `json:"sent"`
	Synced  int      `json:"synced"`
	Failed  int      `json:"failed"`
	Ignored []string `json:"ignored,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func syncReport(r syncengine.Report) syncReportJSON {
	out := syncReportJSON{Adapter: r.Adapter, Skipped: r.Skipped, Sent: r.Sent, Synced: r.Synced, Failed: r.Failed, Ignored: r.Ignored}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}
