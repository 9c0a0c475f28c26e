package client

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/app"
	"github.com/mwantia/photocat/pkg/db/store"
)

func NewImportCommand() *cobra.Command {
	var copyToProject bool

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Import photos into the catalog",
		Long: `Import one or more photo files. A file whose content is already catalogued is
recorded as an additional location of the existing image.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					path, err := absPath(arg)
					if err != nil {
						return err
					}

					result, err := rt.Catalog.Import(ctx, path)
					if err != nil {
						return err
					}

					status := "added location"
					if result.Created {
						status = "imported"
					}

					if copyToProject && result.Image.ProjectPath == nil {
						dest, err := rt.Catalog.CopyToProject(ctx, result.Image.ID)
						if err != nil {
							return err
						}
						status += ", copied to " + dest
					}

					fmt.Fprintf(out, "%s\t%d\t%s\t%s\n", result.Image.ReferenceCode, result.Image.ID, path, status)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&copyToProject, "copy", false, "Copy imported photos into the project folder")

	return cmd
}

func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id|hash>",
		Short: "Show a catalogued image",
		Long:  "Show reference code, locations, tags and metadata of a single image.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				tags, err := rt.Store.GetTags(ctx, image.ID)
				if err != nil {
					return err
				}

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintf(w, "ID:\t%d\n", image.ID)
				fmt.Fprintf(w, "Reference:\t%s\n", image.ReferenceCode)
				fmt.Fprintf(w, "Hash:\t%s\n", image.ContentHash)
				fmt.Fprintf(w, "Project:\t%s\n", projectPath(image))
				fmt.Fprintf(w, "Created:\t%s\n", image.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(tags, ", "))

				for _, location := range image.Locations {
					flags := ""
					if location.IsInProjectFolder {
						flags = " (project)"
					}
					if !location.Verified {
						flags += " (unverified)"
					}
					fmt.Fprintf(w, "Location:\t%s%s\n", location.FilePath, flags)
				}

				keys := make([]string, 0, len(image.Metadata))
				for key := range image.Metadata {
					keys = append(keys, key)
				}
				slices.Sort(keys)
				for _, key := range keys {
					fmt.Fprintf(w, "Meta %s:\t%v\n", key, image.Metadata[key])
				}

				return w.Flush()
			})
		},
	}

	return cmd
}

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all catalogued images",
		Long:  "List all images with their tags, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				rows, err := rt.Store.ListAllWithTags(ctx)
				if err != nil {
					return err
				}

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ID\tREFERENCE\tPROJECT\tCREATED\tTAGS")
				for _, row := range rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
						row.Image.ID,
						row.Image.ReferenceCode,
						projectPath(&row.Image),
						row.Image.CreatedAt.Format("2006-01-02 15:04"),
						strings.Join(row.Tags, ","))
				}
				return w.Flush()
			})
		},
	}

	return cmd
}

func NewSearchCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Long: `Search images by filename, tag name or metadata value. The match is a
case-insensitive substring match; an empty query returns every image.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searchMode, err := store.ParseSearchMode(mode)
			if err != nil {
				return err
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				images, err := rt.Store.Search(ctx, query, searchMode)
				if err != nil {
					return err
				}

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ID\tREFERENCE\tLOCATIONS")
				for _, image := range images {
					fmt.Fprintf(w, "%d\t%s\t%s\n", image.ID, image.ReferenceCode, strings.Join(image.Paths(), ", "))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(store.SearchAll), "Search mode (all, filename, tags, metadata)")

	return cmd
}

func NewDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id|hash>",
		Short: "Remove an image from the catalog",
		Long:  "Remove an image together with its locations and tag associations. Files on disk are not touched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}
				if err := rt.Store.DeleteImage(ctx, image.ID); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%d)\n", image.ReferenceCode, image.ID)
				return nil
			})
		},
	}

	return cmd
}
