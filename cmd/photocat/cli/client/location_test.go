package client

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/photocat/pkg/db/store"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestLocationInvalidateKeepsRow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "photocat.db")

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("metadata.sqlite.path", dbPath)
	viper.Set("log.level", "error")

	photo := filepath.Join(dir, "beach.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("beach"), 0o644))

	out := run(t, NewImportCommand(), photo)
	assert.Contains(t, out, "REF-000001")

	names := []string{}
	for _, sub := range NewLocationCommand().Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "invalidate")
	assert.NotContains(t, names, "rm")

	run(t, NewLocationCommand(), "invalidate", "1", photo)

	ctx := context.Background()
	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { _ = s.Close() })

	locations, err := s.ListLocations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, photo, locations[0].FilePath)
	assert.False(t, locations[0].Verified)
}
