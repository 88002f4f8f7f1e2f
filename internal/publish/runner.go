// Package publish orchestrates one publish run: select collection entries,
// enrich them through the gateway, render the artifact, write it atomically,
// and finalize the append-only run record. Run failures are absorbed at the
// run boundary; only the record carries them forward.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"liner/internal/catalog"
	"liner/internal/config"
	"liner/internal/enrich"
	"liner/internal/gateway"
	"liner/internal/logging"
	"liner/internal/notifications"
	"liner/internal/render"
)

// ErrRunInProgress reports that another run currently holds the runner.
// Overlapping triggers are rejected; the next scheduled tick retries.
var ErrRunInProgress = errors.New("publish: run already in progress")

// Run-fatal error kinds recorded on failed PublishRun rows.
const (
	ErrorKindRenderInvariant = "render-invariant-violation"
	ErrorKindWriteFailure    = "write-failure"
	ErrorKindSelectFailure   = "select-failure"
	ErrorKindRecordFailure   = "record-failure"
)

// Options allow tests to pin randomness and time.
type Options struct {
	Rand  *rand.Rand
	Clock func() time.Time
}

// Runner executes publish runs one at a time.
type Runner struct {
	cfg      *config.Config
	store    *catalog.Store
	gw       *gateway.Gateway
	pipeline *enrich.Pipeline
	notifier notifications.Service
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, store *catalog.Store, gw *gateway.Gateway, notifier notifications.Service, logger *slog.Logger, opts Options) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		store:    store,
		gw:       gw,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "publisher"),
		rng:      opts.Rand,
		now:      opts.Clock,
	}
	if r.notifier == nil {
		r.notifier = notifications.NewService(cfg)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.pipeline = enrich.New(gw, enrich.Options{
		MaxDescriptionWords: cfg.Publish.DescriptionMaxWords,
		Logger:              r.logger,
		Clock:               r.now,
	})
	return r
}

// Run executes one publish run of the given kind. It returns the finalized
// run record; a failed run is reported through the record, not the error
// value, so the scheduler loop never dies on run failures. The only error
// returns are an overlapping run and a run record that could not be created.
func (r *Runner) Run(ctx context.Context, kind catalog.RunKind, trigger catalog.RunTrigger) (*catalog.PublishRun, error) {
	if !r.mu.TryLock() {
		r.logger.Warn("run rejected, another run is in progress",
			logging.String(logging.FieldRunKind, string(kind)),
			logging.String(logging.FieldTrigger, string(trigger)),
			logging.String(logging.FieldEventType, "run_rejected"),
		)
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	run, err := r.store.StartRun(ctx, kind, trigger)
	if err != nil {
		return nil, fmt.Errorf("start run record: %w", err)
	}
	r.logger.Info("run started",
		logging.String(logging.FieldRunID, run.UID),
		logging.String(logging.FieldRunKind, string(kind)),
		logging.String(logging.FieldTrigger, string(trigger)),
	)

	r.execute(ctx, run)
	run.BreakerState = string(r.gw.State())

	if err := r.store.FinalizeRun(ctx, run); err != nil {
		r.logger.Error("finalize run record failed",
			logging.String(logging.FieldRunID, run.UID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check catalog database health"),
		)
		return run, fmt.Errorf("finalize run record: %w", err)
	}
	r.report(ctx, run)
	return run, nil
}

// execute drives selecting, enriching, rendering, and writing, recording the
// outcome on the run row.
func (r *Runner) execute(ctx context.Context, run *catalog.PublishRun) {
	candidates, err := r.store.EntriesByProvenance(ctx, catalog.ProvenanceCollection)
	if err != nil {
		r.fail(run, ErrorKindSelectFailure, err)
		return
	}
	sel := selectEntries(run.Kind, candidates, r.cfg.Publish.BatchSize, r.rng)
	run.EntriesSelected = len(sel.entries)
	run.AnomalyCount = sel.rejected
	if sel.rejected > 0 {
		r.logger.Warn("validator rejected candidates",
			logging.String(logging.FieldRunID, run.UID),
			logging.Int("rejected", sel.rejected),
			logging.String(logging.FieldEventType, "candidates_rejected"),
		)
	}
	r.logger.Info("entries selected",
		logging.String(logging.FieldRunID, run.UID),
		logging.String(logging.FieldState, "selecting"),
		logging.Int(logging.FieldEntryCount, len(sel.entries)),
	)

	enrichCtx, cancel := context.WithTimeout(ctx, r.cfg.TimeBudget())
	results := r.pipeline.Enrich(enrichCtx, sel.entries)
	cancel()
	for i := range results {
		if results[i].Degraded() {
			run.DegradedCount++
		}
	}
	run.EnrichedCount = len(results) - run.DegradedCount
	r.logger.Info("entries enriched",
		logging.String(logging.FieldRunID, run.UID),
		logging.String(logging.FieldState, "enriching"),
		logging.Int("enriched", run.EnrichedCount),
		logging.Int("degraded", run.DegradedCount),
	)

	document, err := render.Document(r.cfg.Publish.DocumentTitle, results, r.now().UTC())
	if err != nil {
		r.fail(run, ErrorKindRenderInvariant, err)
		return
	}

	writer := &artifactWriter{
		dir:    r.cfg.Paths.OutputDir,
		name:   r.cfg.Publish.ArtifactName,
		retain: r.cfg.Publish.RetainArtifacts,
		now:    r.now,
	}
	path, err := writer.write(document)
	if err != nil {
		r.fail(run, ErrorKindWriteFailure, err)
		return
	}
	run.ArtifactPath = path

	if run.DegradedCount > 0 {
		run.Status = catalog.RunStatusDegraded
	} else {
		run.Status = catalog.RunStatusSucceeded
	}
	r.logger.Info("artifact written",
		logging.String(logging.FieldRunID, run.UID),
		logging.String(logging.FieldState, "writing"),
		logging.String(logging.FieldArtifact, path),
	)
}

func (r *Runner) fail(run *catalog.PublishRun, kind string, err error) {
	run.Status = catalog.RunStatusFailed
	run.ErrorKind = kind
	run.ErrorMessage = err.Error()
	r.logger.Error("run failed",
		logging.String(logging.FieldRunID, run.UID),
		logging.String("error_kind", kind),
		logging.Error(err),
		logging.String(logging.FieldEventType, "run_failed"),
	)
}

func (r *Runner) report(ctx context.Context, run *catalog.PublishRun) {
	var err error
	if run.Status == catalog.RunStatusFailed {
		err = r.notifier.NotifyPublishFailed(ctx, string(run.Kind), run.ErrorKind, errors.New(run.ErrorMessage))
	} else {
		err = r.notifier.NotifyPublishCompleted(ctx, string(run.Kind), run.EntriesSelected, run.DegradedCount, run.ArtifactPath)
	}
	if err != nil {
		r.logger.Warn("notification failed",
			logging.String(logging.FieldRunID, run.UID),
			logging.Error(err),
		)
	}
}
