package agent

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/photocat/internal/app"
	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/log"
)

func newTestAgent(t *testing.T) *CatalogAgent {
	t.Helper()

	cfg := config.GetServerDefault()
	cfg.Metadata.SQLite.Path = filepath.Join(t.TempDir(), "photocat.db")

	logger := log.NewLoggerServiceWithWriter("agent", config.LogServerConfig{Level: "DEBUG", NoColor: true}, io.Discard)

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/photos/keep.jpg", []byte("keep"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/photos/gone.jpg", []byte("gone"), 0o644))

	rt, err := app.New(context.Background(), &cfg, logger, fs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	ca := NewAgent(&cfg)
	ca.log = logger
	ca.app = rt
	ca.workers.Reconcile = logger.Named("reconcile")
	return ca
}

func TestReconcileOnce(t *testing.T) {
	ca := newTestAgent(t)
	ctx := context.Background()

	_, err := ca.app.Catalog.Import(ctx, "/photos/keep.jpg")
	require.NoError(t, err)
	gone, err := ca.app.Catalog.Import(ctx, "/photos/gone.jpg")
	require.NoError(t, err)

	require.NoError(t, ca.app.FS.Remove("/photos/gone.jpg"))

	ca.reconcileOnce(ctx)

	report := ca.LastReport()
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Verified)
	assert.Equal(t, 1, report.Evicted)
	assert.False(t, report.Cancelled)

	locations, err := ca.app.Store.ListLocations(ctx, gone.Image.ID)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestReconcileLoopStopsOnCancel(t *testing.T) {
	ca := newTestAgent(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ca.wait.Add(1)
	ca.reconcileLoop(ctx, ca.app.ReconcileInterval())
	ca.wait.Wait()

	assert.True(t, ca.LastReport().Cancelled)
}
