package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"liner/internal/catalog"
	"liner/internal/config"
	"liner/internal/logging"
	"liner/internal/publish"
)

// Daemon runs the publish scheduler and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *catalog.Store
	runner *publish.Runner

	lockPath string
	lock     *flock.Flock

	interval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	DatabasePath  string
	LockFilePath  string
	LastRun       *catalog.PublishRun
	EntriesByProv map[catalog.Provenance]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, runner *publish.Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || runner == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, runner, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.StateDir, "linerd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		runner:   runner,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		interval: cfg.RunInterval(),
	}, nil
}

// Start acquires the daemon lock and launches the scheduler loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another liner daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(1)
	go d.schedule(runCtx)

	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("interval", d.interval),
	)
	return nil
}

// schedule triggers a digest run every interval until the context ends. An
// overlapping run is skipped and retried on the next tick.
func (d *Daemon) schedule(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run, err := d.runner.Run(ctx, catalog.RunKindDigest, catalog.TriggerScheduled)
			switch {
			case errors.Is(err, publish.ErrRunInProgress):
				d.logger.Warn("scheduled tick skipped, run in progress")
			case err != nil:
				d.logger.Error("scheduled run error", logging.Error(err))
			default:
				d.logger.Info("scheduled run finished",
					logging.String(logging.FieldRunID, run.UID),
					logging.String(logging.FieldState, string(run.Status)),
				)
			}
		}
	}
}

// RunNow triggers one run of the given kind outside the schedule.
func (d *Daemon) RunNow(ctx context.Context, kind catalog.RunKind) (*catalog.PublishRun, error) {
	return d.runner.Run(ctx, kind, catalog.TriggerManual)
}

// Stop halts the scheduler and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	counts, err := d.store.CountByProvenance(ctx)
	if err != nil {
		return status, err
	}
	status.EntriesByProv = counts

	last, err := d.store.LastRun(ctx)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return status, err
	}
	status.LastRun = last
	return status, nil
}
