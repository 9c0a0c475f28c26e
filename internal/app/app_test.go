package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/log"
)

func testConfig(t *testing.T) *config.BaseServerConfig {
	t.Helper()

	cfg := config.GetServerDefault()
	cfg.Metadata.SQLite.Path = filepath.Join(t.TempDir(), "photocat.db")
	cfg.Reference.Prefix = "IMG"
	return &cfg
}

func testLogger() log.LoggerService {
	return log.NewLoggerServiceWithWriter("test", config.LogServerConfig{Level: "DEBUG", NoColor: true}, io.Discard)
}

func TestNewRestoresReferenceCounter(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	fs := memfs.New()

	require.NoError(t, util.WriteFile(fs, "/photos/a.jpg", []byte("alpha"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/photos/b.jpg", []byte("bravo"), 0o644))

	first, err := New(ctx, cfg, testLogger(), fs)
	require.NoError(t, err)

	result, err := first.Catalog.Import(ctx, "/photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "IMG-000001", result.Image.ReferenceCode)
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg, testLogger(), fs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	result, err = second.Catalog.Import(ctx, "/photos/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "IMG-000002", result.Image.ReferenceCode)
}

func TestNewWiresReconciler(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Reconcile.Strictness = "content"
	fs := memfs.New()

	require.NoError(t, util.WriteFile(fs, "/photos/a.jpg", []byte("alpha"), 0o644))

	rt, err := New(ctx, cfg, testLogger(), fs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	result, err := rt.Catalog.Import(ctx, "/photos/a.jpg")
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "/photos/a.jpg", []byte("changed"), 0o644))

	report, err := rt.Reconciler.Run(ctx, result.Image.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mismatched)

	locations, err := rt.Store.ListLocations(ctx, result.Image.ID)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.False(t, locations[0].Verified)
}

func TestNewRejectsUnknownStrictness(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reconcile.Strictness = "paranoid"

	_, err := New(context.Background(), cfg, testLogger(), memfs.New())
	assert.Error(t, err)
}

func TestReconcileInterval(t *testing.T) {
	rt := &App{Cfg: testConfig(t)}
	assert.Equal(t, time.Hour, rt.ReconcileInterval())

	rt.Cfg.Reconcile.Interval = "15m"
	assert.Equal(t, 15*time.Minute, rt.ReconcileInterval())

	rt.Cfg.Reconcile.Interval = "-1s"
	assert.Equal(t, time.Hour, rt.ReconcileInterval())
}
