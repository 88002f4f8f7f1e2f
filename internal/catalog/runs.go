package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunKind distinguishes the two publication shapes.
type RunKind string

const (
	RunKindDigest     RunKind = "digest"
	RunKindAlbumOfDay RunKind = "album-of-day"
)

// ParseRunKind converts a string into a known RunKind.
func ParseRunKind(value string) (RunKind, bool) {
	switch RunKind(value) {
	case RunKindDigest:
		return RunKindDigest, true
	case RunKindAlbumOfDay:
		return RunKindAlbumOfDay, true
	default:
		return "", false
	}
}

// RunTrigger records how a publish run was started.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "scheduled"
	TriggerManual    RunTrigger = "manual"
)

// RunStatus is the lifecycle state of a publish run record.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusDegraded  RunStatus = "degraded"
	RunStatusFailed    RunStatus = "failed"
)

// PublishRun is one row of the append-only run history. A row is inserted
// when the run starts and finalized exactly once when it ends; finalized
// rows are never rewritten.
type PublishRun struct {
	ID              int64
	UID             string
	Kind            RunKind
	Trigger         RunTrigger
	Status          RunStatus
	StartedAt       time.Time
	FinishedAt      *time.Time
	EntriesSelected int
	EnrichedCount   int
	DegradedCount   int
	AnomalyCount    int
	BreakerState    string
	ArtifactPath    string
	ErrorKind       string
	ErrorMessage    string
}

// Finalized reports whether the run has reached a terminal status.
func (r *PublishRun) Finalized() bool {
	return r != nil && r.Status != RunStatusRunning
}

// StartRun inserts a new running publish run row and returns it.
func (s *Store) StartRun(ctx context.Context, kind RunKind, trigger RunTrigger) (*PublishRun, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	runUID := uuid.NewString()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO publish_runs (uid, kind, triggered_by, status, started_at)
         VALUES (?, ?, ?, ?, ?)`,
		runUID,
		string(kind),
		string(trigger),
		string(RunStatusRunning),
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert publish run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRunByID(ctx, id)
}

// FinalizeRun writes the terminal state of a run. The update only matches
// rows still in the running status, so a second finalize attempt fails with
// ErrRunFinalized and the recorded outcome stays intact.
func (s *Store) FinalizeRun(ctx context.Context, run *PublishRun) error {
	if run == nil {
		return errors.New("finalize run: nil run")
	}
	if run.Status == RunStatusRunning {
		return errors.New("finalize run: status still running")
	}

	finished := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE publish_runs SET
            status = ?, finished_at = ?,
            entries_selected = ?, enriched_count = ?, degraded_count = ?, anomaly_count = ?,
            breaker_state = ?, artifact_path = ?, error_kind = ?, error_message = ?
         WHERE id = ? AND status = ?`,
		string(run.Status),
		finished.Format(time.RFC3339Nano),
		run.EntriesSelected,
		run.EnrichedCount,
		run.DegradedCount,
		run.AnomalyCount,
		nullableString(run.BreakerState),
		nullableString(run.ArtifactPath),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		run.ID,
		string(RunStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("finalize publish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRunFinalized
	}
	run.FinishedAt = &finished
	return nil
}

// GetRunByID fetches a publish run by row identifier.
func (s *Store) GetRunByID(ctx context.Context, id int64) (*PublishRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM publish_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get publish run %d: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0 returns
// the full history.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*PublishRun, error) {
	query := `SELECT ` + runColumns + ` FROM publish_runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publish runs: %w", err)
	}
	defer rows.Close()

	var runs []*PublishRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publish run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastRun returns the most recent publish run, or ErrNotFound when the
// history is empty.
func (s *Store) LastRun(ctx context.Context) (*PublishRun, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return runs[0], nil
}

const runColumns = "id, uid, kind, triggered_by, status, started_at, finished_at, entries_selected, enriched_count, degraded_count, anomaly_count, breaker_state, artifact_path, error_kind, error_message"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*PublishRun, error) {
	var (
		id              int64
		runUID          string
		kind            string
		trigger         string
		status          string
		startedRaw      sql.NullString
		finishedRaw     sql.NullString
		entriesSelected int
		enrichedCount   int
		degradedCount   int
		anomalyCount    int
		breakerState    sql.NullString
		artifactPath    sql.NullString
		errorKind       sql.NullString
		errorMessage    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runUID,
		&kind,
		&trigger,
		&status,
		&startedRaw,
		&finishedRaw,
		&entriesSelected,
		&enrichedCount,
		&degradedCount,
		&anomalyCount,
		&breakerState,
		&artifactPath,
		&errorKind,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	run := &PublishRun{
		ID:              id,
		UID:             runUID,
		Kind:            RunKind(kind),
		Trigger:         RunTrigger(trigger),
		Status:          RunStatus(status),
		EntriesSelected: entriesSelected,
		EnrichedCount:   enrichedCount,
		DegradedCount:   degradedCount,
		AnomalyCount:    anomalyCount,
		BreakerState:    breakerState.String,
		ArtifactPath:    artifactPath.String,
		ErrorKind:       errorKind.String,
		ErrorMessage:    errorMessage.String,
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}
