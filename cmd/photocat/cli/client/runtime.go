package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/app"
	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/db/models"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
)

// withRuntime loads the configuration, opens the catalog and runs fn.
// Log output goes to stderr so command output stays machine readable.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *app.App) error) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	logger := log.NewLoggerServiceWithWriter("photocat", cfg.Log, cmd.ErrOrStderr())

	rt, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(ctx, rt)
}

// absPath resolves command line paths against the working directory
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve '%s': %w", path, err)
	}
	return abs, nil
}

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid image id %q", value)
	}
	return uint(id), nil
}

// resolveImage accepts either a numeric image id or a content hash
func resolveImage(ctx context.Context, s store.CatalogStore, value string) (*models.Image, error) {
	if id, err := parseID(value); err == nil {
		return s.GetImage(ctx, id)
	}

	image, err := s.GetImageByHash(ctx, strings.ToLower(value))
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, fmt.Errorf("no image with id or hash %q: %w", value, store.ErrNotFound)
	}
	return image, nil
}

// resolveTag looks up a tag id by its name
func resolveTag(ctx context.Context, s store.CatalogStore, name string) (uint, error) {
	tags, err := s.ListTags(ctx)
	if err != nil {
		return 0, err
	}

	name = strings.TrimSpace(name)
	for _, usage := range tags {
		if usage.Tag.Name == name {
			return usage.Tag.ID, nil
		}
	}
	return 0, fmt.Errorf("tag %q: %w", name, store.ErrNotFound)
}

// parseMetadata converts key=value arguments. Values that look like numbers or
// booleans are stored as such, everything else as a string.
func parseMetadata(args []string) (models.Metadata, error) {
	metadata := models.Metadata{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid metadata entry %q, expected key=value", arg)
		}
		metadata[strings.TrimSpace(key)] = parseValue(value)
	}
	return metadata, nil
}

func parseValue(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func projectPath(image *models.Image) string {
	if image.ProjectPath == nil {
		return "-"
	}
	return *image.ProjectPath
}
