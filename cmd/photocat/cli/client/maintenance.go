package client

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/app"
	"github.com/mwantia/photocat/pkg/reconcile"
	"github.com/mwantia/photocat/pkg/refcode"
)

func NewReconcileCommand() *cobra.Command {
	var strictness string

	cmd := &cobra.Command{
		Use:   "reconcile [id|hash]",
		Short: "Check recorded locations against the filesystem",
		Long: `Check every recorded location of one image, or of the whole catalog, against
the filesystem. Missing files are removed from the catalog; with content
strictness, files whose bytes changed are marked unverified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				reconciler := rt.Reconciler
				if strictness != "" {
					level, err := reconcile.ParseStrictness(strictness)
					if err != nil {
						return err
					}
					reconciler = reconcile.NewReconciler(rt.Store, rt.FS, rt.Hasher, level, rt.Log.Named("reconcile"))
				}

				var imageID uint
				if len(args) == 1 {
					image, err := resolveImage(ctx, rt.Store, args[0])
					if err != nil {
						return err
					}
					imageID = image.ID
				}

				report, err := reconciler.Run(ctx, imageID)

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintf(w, "Locations:\t%d\n", report.Total)
				fmt.Fprintf(w, "Verified:\t%d\n", report.Verified)
				fmt.Fprintf(w, "Removed:\t%d\n", report.Evicted)
				fmt.Fprintf(w, "Mismatched:\t%d\n", report.Mismatched)
				fmt.Fprintf(w, "Skipped:\t%d\n", report.Skipped)
				for _, skipped := range report.Errors {
					fmt.Fprintf(w, "Error:\t%v\n", skipped)
				}
				if flushErr := w.Flush(); flushErr != nil && err == nil {
					err = flushErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&strictness, "strictness", "", "Override the configured strictness (existence, content)")

	return cmd
}

func NewScanCommand() *cobra.Command {
	var importNew bool

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Scan a directory tree for photos",
		Long: `Walk a directory tree and hash every photo. Files matching a catalogued image
are recorded as additional locations; with --import, unknown files are imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absPath(args[0])
			if err != nil {
				return err
			}

			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				report, err := rt.Catalog.Rescan(ctx, root, importNew)

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintf(w, "Scanned:\t%d\n", report.Scanned)
				fmt.Fprintf(w, "Locations added:\t%d\n", report.Added)
				fmt.Fprintf(w, "Imported:\t%d\n", report.Imported)
				fmt.Fprintf(w, "Ignored:\t%d\n", report.Ignored)
				fmt.Fprintf(w, "Failed:\t%d\n", report.Failed)
				if flushErr := w.Flush(); flushErr != nil && err == nil {
					err = flushErr
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&importNew, "import", false, "Import photos that are not catalogued yet")

	return cmd
}

func NewRefcodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refcode",
		Short: "Reference code utilities",
		Long:  "Preview and decode the reference codes assigned to images.",
	}

	cmd.AddCommand(newRefcodeNextCommand())
	cmd.AddCommand(newRefcodeParseCommand())

	return cmd
}

func newRefcodeNextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Preview the next reference code",
		Long:  "Print the code the next import would receive. Nothing is reserved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), rt.Allocator.Next())
				return nil
			})
		},
	}

	return cmd
}

func newRefcodeParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <code>...",
		Short: "Decode reference codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "CODE\tKIND\tPREFIX\tDATE\tSEQUENCE")
			for _, arg := range args {
				code := refcode.Parse(arg)
				if code.Kind == refcode.KindUnknown {
					fmt.Fprintf(w, "%s\t%s\t-\t-\t-\n", code.Raw, code.Kind)
					continue
				}

				date := "-"
				if !code.Date.IsZero() {
					date = code.Date.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", code.Raw, code.Kind, code.Prefix, date, code.Sequence)
			}
			return w.Flush()
		},
	}

	return cmd
}
