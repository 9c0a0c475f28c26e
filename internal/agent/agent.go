package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/photocat/internal/app"
	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
	"github.com/mwantia/photocat/pkg/reconcile"
)

// CatalogAgent keeps the catalog consistent with the filesystem by running
// reconciliation on a fixed interval until it is interrupted.
type CatalogAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService
	app *app.App

	workers workers
	last    reconcile.Report
}

type workers struct {
	Reconcile log.LoggerService `fabric:"logger:reconcile"`
}

func NewAgent(cfg *config.BaseServerConfig) *CatalogAgent {
	return &CatalogAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("agent", cfg.Log),
	}
}

func (ca *CatalogAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	ca.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](ca.sc,
		container.With[log.LoggerService](),
		container.WithInstance(ca.log)))

	ca.log.Debug("Registering 'CatalogStore'...")
	errs.Add(container.Register[store.SQLiteStore](ca.sc,
		container.With[store.CatalogStore](),
		container.WithInstance(ca.app.Store)))

	if err := errs.Errors(); err != nil {
		return err
	}

	return log.NewLoggerTagProcessor().Inject(ctx, ca.sc, &ca.workers)
}

func (ca *CatalogAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	ca.mutex.Lock()

	runtime, err := app.New(ctx, ca.cfg, ca.log, nil)
	if err != nil {
		ca.mutex.Unlock()
		return err
	}
	ca.app = runtime
	defer ca.app.Close()

	if err := ca.setupServices(ctx); err != nil {
		ca.mutex.Unlock()
		return err
	}

	ca.mutex.Unlock()

	interval := ca.app.ReconcileInterval()
	ca.log.Info("Catalog agent started (database: %s, reconcile interval: %s)", ca.cfg.Metadata.SQLite.Path, interval)

	ca.wait.Add(1)
	go ca.reconcileLoop(ctx, interval)

	<-ctx.Done()
	ca.log.Info("Shutting down catalog agent...")

	timeout, err := time.ParseDuration(ca.cfg.ShutdownTimeout)
	if err != nil {
		timeout = 60 * time.Second
	}

	shutdown, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	if err := ca.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	ca.wait.Wait()
	return nil
}

// LastReport returns the report of the most recent reconciliation pass
func (ca *CatalogAgent) LastReport() reconcile.Report {
	ca.mutex.RLock()
	defer ca.mutex.RUnlock()

	return ca.last
}

func (ca *CatalogAgent) reconcileLoop(ctx context.Context, interval time.Duration) {
	defer ca.wait.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ca.reconcileOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ca.reconcileOnce(ctx)
		}
	}
}

func (ca *CatalogAgent) reconcileOnce(ctx context.Context) {
	logger := ca.workers.Reconcile

	report, err := ca.app.Reconciler.Run(ctx, 0)
	if err != nil && !report.Cancelled {
		logger.Error("Reconciliation failed: %v", err)
	}

	ca.mutex.Lock()
	ca.last = report
	ca.mutex.Unlock()

	logger.Debug("Reconciliation pass finished after %d of %d locations", report.Processed(), report.Total)
}
