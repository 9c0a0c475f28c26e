package client

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/app"
)

func NewTagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
		Long:  "Attach, detach and list the tags used to organize images.",
	}

	cmd.AddCommand(newTagAddCommand())
	cmd.AddCommand(newTagRemoveCommand())
	cmd.AddCommand(newTagClearCommand())
	cmd.AddCommand(newTagListCommand())
	cmd.AddCommand(newTagCreateCommand())
	cmd.AddCommand(newTagDeleteCommand())

	return cmd
}

func newTagAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id|hash> <tag>...",
		Short: "Attach tags to an image",
		Long:  "Attach tags to an image, creating tags that do not exist yet.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				return rt.Catalog.TagImage(ctx, image.ID, args[1:]...)
			})
		},
	}

	return cmd
}

func newTagRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id|hash> <tag>...",
		Short: "Detach tags from an image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				for _, name := range args[1:] {
					tagID, err := resolveTag(ctx, rt.Store, name)
					if err != nil {
						return err
					}
					if err := rt.Store.UntagImage(ctx, image.ID, tagID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	return cmd
}

func newTagClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear <id|hash>",
		Short: "Detach all tags from an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				return rt.Store.ClearTags(ctx, image.ID)
			})
		},
	}

	return cmd
}

func newTagListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List tags with usage counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				tags, err := rt.Store.ListTags(ctx)
				if err != nil {
					return err
				}

				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "NAME\tIMAGES\tDESCRIPTION")
				for _, usage := range tags {
					fmt.Fprintf(w, "%s\t%d\t%s\n", usage.Tag.Name, usage.UsageCount, usage.Tag.Description)
				}
				return w.Flush()
			})
		},
	}

	cmd.Aliases = []string{"list"}

	return cmd
}

func newTagCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <tag>",
		Short: "Create a tag",
		Long:  "Create a tag without attaching it. Creating an existing tag returns it unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				tagID, err := rt.Store.AddTag(ctx, args[0], description)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", args[0], tagID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Tag description")

	return cmd
}

func newTagDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a tag",
		Long:  "Delete a tag and detach it from every image.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				tagID, err := resolveTag(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				return rt.Store.DeleteTag(ctx, tagID)
			})
		},
	}

	return cmd
}
