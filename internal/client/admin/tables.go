package admin

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/render"
	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func NewTablesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage dynamic local tables",
	}
	cmd.AddCommand(newTablesListCommand(opts))
	cmd.AddCommand(newTablesCreateCommand(opts))
	cmd.AddCommand(newTablesDropCommand(opts))
	cmd.AddCommand(newTablesRowsCommand(opts))
	cmd.AddCommand(newTablesPutCommand(opts))
	return cmd
}

func tableService(opts *RootOptions) services.TableService {
	return do.MustInvoke[services.TableService](opts.injector)
}

func newTablesListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List system and user tables with row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := tableService(opts).List(cmd.Context())
			if err != nil {
				return err
			}
			return opts.emit(cmd, tables, func(p *render.Printer) { p.Tables(tables) })
		},
	}
}

func newTablesCreateCommand(opts *RootOptions) *cobra.Command {
	var meta models.TableMeta
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Declare a new table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta.Name = args[0]
			if err := tableService(opts).Create(cmd.Context(), meta); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created table %s\n", meta.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&meta.KeyPath, "key-path", "", "document field used as key (empty: keys given on put)")
	cmd.Flags().StringArrayVar(&meta.Indices, "index", nil, "indexed field, or comma-separated compound index; repeatable")
	cmd.Flags().BoolVar(&meta.IsEncrypted, "encrypted", false, "encrypt documents at rest")
	return cmd
}

func newTablesDropCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Delete a user table and all its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tableService(opts).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Dropped table %s\n", args[0])
			return nil
		},
	}
}

func newTablesRowsCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rows <name>",
		Short: "Show the documents of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := tableService(opts).Rows(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return opts.emit(cmd, docs, func(p *render.Printer) { p.Rows(args[0], docs) })
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows (0 for all)")
	return cmd
}

func newTablesPutCommand(opts *RootOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "put <name> <json>",
		Short: "Insert or replace a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := tableService(opts).Put(cmd.Context(), args[0], key, json.RawMessage(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %s/%s\n", args[0], stored)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "document key for tables without a key path")
	return cmd
}
