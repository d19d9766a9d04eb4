package admin

import (
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/content"
	"github.com/dmitrijs2005/devcms/internal/client/export"
	"github.com/dmitrijs2005/devcms/internal/client/render"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Import markdown posts with YAML front matter as post events",
		Long: "Each .md file with front matter becomes a POST_CREATED event, or POST_UPDATED when the post " +
			"already exists with different content. The directory defaults to content_dir.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.cfg.ContentDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no content directory given and content_dir is not set")
			}
			rep, err := do.MustInvoke[*content.Importer](opts.injector).Import(cmd.Context(), dir)
			if err != nil {
				return err
			}
			return opts.emit(cmd, rep, func(p *render.Printer) { p.ImportReport(rep) })
		},
	}
}

func NewExportCommand(opts *RootOptions) *cobra.Command {
	var (
		dir    string
		toS3   bool
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of auth, events and stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := do.MustInvoke[*export.Exporter](opts.injector)
			if toS3 {
				c := opts.cfg
				up, err := export.NewS3Uploader(cmd.Context(), export.S3Config{
					Region: c.S3Region, Endpoint: c.S3Endpoint, Bucket: c.S3Bucket,
					AccessKey: c.S3AccessKey, SecretKey: c.S3SecretKey,
				})
				if err != nil {
					return err
				}
				key, err := ex.Upload(cmd.Context(), up, prefix)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded s3://%s/%s\n", c.S3Bucket, key)
				return nil
			}

			if dir == "" {
				dir = opts.cfg.ExportDir
			}
			path, err := ex.WriteFile(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default export_dir)")
	cmd.Flags().BoolVar(&toS3, "s3", false, "upload to the configured S3 bucket instead")
	cmd.Flags().StringVar(&prefix, "prefix", "exports", "object key prefix for --s3")
	return cmd
}
