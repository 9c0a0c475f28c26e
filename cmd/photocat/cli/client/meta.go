package client

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/app"
)

func NewMetaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Manage image metadata",
		Long:  "Set or replace the free-form key/value metadata of an image.",
	}

	cmd.AddCommand(newMetaUpdateCommand("set", "Merge metadata entries into an image", true))
	cmd.AddCommand(newMetaUpdateCommand("replace", "Replace the metadata of an image", false))

	return cmd
}

func newMetaUpdateCommand(use, short string, merge bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id|hash> <key=value>...",
		Short: short,
		Long:  short + ". Numeric and boolean values are stored typed.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(args[1:])
			if err != nil {
				return err
			}

			return withRuntime(cmd, func(ctx context.Context, rt *app.App) error {
				image, err := resolveImage(ctx, rt.Store, args[0])
				if err != nil {
					return err
				}

				return rt.Catalog.UpdateMetadata(ctx, image.ID, metadata, merge)
			})
		},
	}

	return cmd
}
