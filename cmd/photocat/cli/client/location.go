package client

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/app"
)

func NewLocationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage image locations",
		Long:  "Record, verify and remove the file paths an image is known to live at.",
	}

	cmd.AddCommand(newLocationListCommand())
	cmd.AddCommand(newLocationAddCommand())
	cmd.AddCommand(newLocationVerifyCommand())
	cmd.AddCommand(newLocationInvalidateCommand())

	return cmd
}

func newLocationListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [id|hash]",
		Short: "List known locations",
		Long:  "List the locations of one image, or of every image when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				var imageID uint
				if len(args) == 1 {
					image, err := resolveImage(ctx, rt.Store, args[0])
					if err != nil {
						return err
					}
					imageID = image.ID
				}

				locations, err := rt.Store.ListLocations(ctx, imageID)
				if err != nil {
					return err
				}

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "IMAGE\tPATH\tPROJECT\tVERIFIED\tLAST VERIFIED")
				for _, location := range locations {
					lastVerified := "-"
					if location.LastVerified != nil {
						lastVerified = location.LastVerified.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%s\n",
						location.ImageID, location.FilePath, location.IsInProjectFolder, location.Verified, lastVerified)
				}
				return w.Flush()
			})
		},
	}

	return cmd
}

func newLocationAddCommand() *cobra.Command {
	var inProject bool

	cmd := &cobra.Command{
		Use:   "add <id|hash> <path>",
		Short: "Record a location for an image",
		Long:  "Record a path as a location of an image. Recording an existing location refreshes it.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[1])
			if err != nil {
				return err
			}

			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				project := inProject || rt.Catalog.InProject(path)
				if err := rt.Store.AddLocation(ctx, image.ID, path, project); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Recorded '%s' for %s\n", path, image.ReferenceCode)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&inProject, "project", false, "Mark the location as part of the project folder")

	return cmd
}

func newLocationVerifyCommand() *cobra.Command {
	var missing bool

	cmd := &cobra.Command{
		Use:   "verify <id|hash> <path>",
		Short: "Report whether a location still exists",
		Long: `Report the observed state of a location. An existing file marks the
location verified, --missing removes it from the catalog.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[1])
			if err != nil {
				return err
			}

			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				if err := rt.Store.VerifyLocation(ctx, image.ID, path, !missing); err != nil {
					return err
				}

				state := "verified"
				if missing {
					state = "removed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Location '%s' of %s %s\n", path, image.ReferenceCode, state)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&missing, "missing", false, "The file no longer exists")

	return cmd
}

func newLocationInvalidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate <id|hash> <path>",
		Short: "Mark a location as unverified",
		Long:  "Keep the location on record but mark it unverified until the next successful check.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[1])
			if err != nil {
				return err
			}

			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				return rt.Store.InvalidateLocation(ctx, image.ID, path)
			})
		},
	}

	return cmd
}

func NewProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage project folder copies",
		Long:  "Assign or create the canonical copy of an image inside the project folder.",
	}

	cmd.AddCommand(newProjectSetCommand())
	cmd.AddCommand(newProjectCopyCommand())

	return cmd
}

func newProjectSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <id|hash> <path>",
		Short: "Set the project path of an image",
		Long:  "Record the path of the canonical copy relative to the project folder.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				return rt.Store.SetProjectPath(ctx, image.ID, args[1])
			})
		},
	}

	return cmd
}

func newProjectCopyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <id|hash>...",
		Short: "Copy images into the project folder",
		Long:  "Copy images into the project folder, named after their reference code.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				for _, arg := range args {
					image, err := resolveImage(ctx, rt.Store, arg)
					if err != nil {
						return err
					}

					dest, err := rt.Catalog.CopyToProject(ctx, image.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", image.ReferenceCode, dest)
				}
				return nil
			})
		},
	}

	return cmd
}
