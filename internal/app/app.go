package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gormlogger "gorm.io/gorm/logger"

	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/catalog"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
	"github.com/mwantia/photocat/pkg/reconcile"
	"github.com/mwantia/photocat/pkg/refcode"
	"github.com/mwantia/photocat/pkg/scan"
)

// App wires the catalog components from a loaded configuration
type App struct {
	Cfg        *config.BaseServerConfig
	Log        log.LoggerService
	FS         billy.Filesystem
	Store      *store.SQLiteStore
	Allocator  *refcode.Allocator
	Hasher     *scan.Hasher
	Catalog    *catalog.Service
	Reconciler *reconcile.Reconciler
}

// New opens the catalog database, applies migrations and builds every service.
// A nil filesystem defaults to the host filesystem rooted at "/", in which case
// the project folder is resolved to an absolute path.
func New(ctx context.Context, cfg *config.BaseServerConfig, logger log.LoggerService, fs billy.Filesystem) (*App, error) {
	projectDir := cfg.Catalog.ProjectDir
	if fs == nil {
		fs = osfs.New("/")
		if projectDir != "" {
			abs, err := filepath.Abs(projectDir)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve project folder: %w", err)
			}
			projectDir = abs
		}
	}

	db, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     cfg.Metadata.SQLite.Path,
		LogLevel: gormLevel(cfg.Log),
		Logger:   log.NewGormLogger(logger.Named("gorm"), gormLevel(cfg.Log)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog store: %w", err)
	}

	if err := db.Connect(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect catalog store: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	strictness, err := reconcile.ParseStrictness(cfg.Reconcile.Strictness)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	allocator := refcode.New(refcode.Config{
		Prefix:     cfg.Reference.Prefix,
		DailyReset: cfg.Reference.DailyReset,
	})
	hasher := scan.NewHasher(fs, cfg.Scan.ChunkSize)

	service := catalog.NewService(db, allocator, fs, hasher, logger.Named("catalog"), catalog.Options{
		ProjectDir:   projectDir,
		CopyOnImport: cfg.Catalog.CopyOnImport,
	})
	if err := service.RestoreAllocator(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to restore reference counter: %w", err)
	}

	return &App{
		Cfg:        cfg,
		Log:        logger,
		FS:         fs,
		Store:      db,
		Allocator:  allocator,
		Hasher:     hasher,
		Catalog:    service,
		Reconciler: reconcile.NewReconciler(db, fs, hasher, strictness, logger.Named("reconcile")),
	}, nil
}

// ReconcileInterval returns the configured interval between agent reconciliations
func (a *App) ReconcileInterval() time.Duration {
	interval, err := time.ParseDuration(a.Cfg.Reconcile.Interval)
	if err != nil || interval <= 0 {
		return time.Hour
	}
	return interval
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func gormLevel(cfg config.LogServerConfig) gormlogger.LogLevel {
	if cfg.SQL {
		return gormlogger.Info
	}
	return gormlogger.Warn
}
