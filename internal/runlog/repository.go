// Package runlog persists campaign results to SQLite so sweep outcomes
// survive process restarts and can be compared across sessions.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/riglab-core/internal/campaign"
	"github.com/nerrad567/riglab-core/internal/infrastructure/database"
)

// defaultListLimit caps List results when the caller does not.
const defaultListLimit = 50

// ErrRunNotFound is returned when a campaign id has no stored run.
var ErrRunNotFound = errors.New("runlog: run not found")

// RunSummary is the list view of a stored run.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	Attempts     int
	Planned      int
	Successes    int
	Cancelled    bool
	StoppedEarly bool
}

// Repository defines the interface for campaign run persistence.
type Repository interface {
	Save(ctx context.Context, run campaign.Run) error
	Get(ctx context.Context, id string) (campaign.Run, error)
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// SQLiteRepository stores campaign runs in SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a campaign run repository.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureSchema creates the runlog tables if they do not exist.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaign_runs (
			id                   TEXT PRIMARY KEY,
			started_at           TEXT NOT NULL,
			elapsed_ms           INTEGER NOT NULL,
			attempts             INTEGER NOT NULL,
			planned              INTEGER NOT NULL,
			cancelled            INTEGER NOT NULL,
			stopped_early        INTEGER NOT NULL,
			io_errors            INTEGER NOT NULL,
			offset_min           INTEGER NOT NULL,
			offset_max           INTEGER NOT NULL,
			offset_step          INTEGER NOT NULL,
			width_min            INTEGER NOT NULL,
			width_max            INTEGER NOT NULL,
			width_step           INTEGER NOT NULL,
			attempts_per_setting INTEGER NOT NULL,
			stop_on_success      INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS campaign_successes (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL REFERENCES campaign_runs(id) ON DELETE CASCADE,
			glitch_offset INTEGER NOT NULL,
			glitch_width  INTEGER NOT NULL,
			attempt       INTEGER NOT NULL,
			matched       TEXT NOT NULL,
			at            TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_campaign_successes_run
			ON campaign_successes(run_id);
	`)
	if err != nil {
		return fmt.Errorf("creating runlog schema: %w", err)
	}
	return nil
}

// Save stores a run and its successes atomically.
func (r *SQLiteRepository) Save(ctx context.Context, run campaign.Run) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO campaign_runs (
			id, started_at, elapsed_ms, attempts, planned, cancelled,
			stopped_early, io_errors,
			offset_min, offset_max, offset_step,
			width_min, width_max, width_step,
			attempts_per_setting, stop_on_success
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Elapsed.Milliseconds(),
		run.Attempts, run.Planned,
		boolToInt(run.Cancelled), boolToInt(run.StoppedEarly), run.IOErrors,
		run.Params.Offset.Min, run.Params.Offset.Max, run.Params.Offset.Step,
		run.Params.Width.Min, run.Params.Width.Max, run.Params.Width.Step,
		run.Params.AttemptsPerSetting, boolToInt(run.Params.StopOnSuccess),
	)
	if err != nil {
		return fmt.Errorf("inserting campaign run: %w", err)
	}

	for _, s := range run.Successes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO campaign_successes (run_id, glitch_offset, glitch_width, attempt, matched, at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, s.Offset, s.Width, s.Attempt, s.Matched,
			s.At.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting campaign success: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing campaign run: %w", err)
	}
	return nil
}

// Get loads a run with its successes.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (campaign.Run, error) {
	var run campaign.Run
	var startedAt string
	var elapsedMs int64
	var cancelled, stoppedEarly, stopOnSuccess int

	err := r.db.QueryRowContext(ctx,
		`SELECT id, started_at, elapsed_ms, attempts, planned, cancelled,
		        stopped_early, io_errors,
		        offset_min, offset_max, offset_step,
		        width_min, width_max, width_step,
		        attempts_per_setting, stop_on_success
		 FROM campaign_runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &startedAt, &elapsedMs, &run.Attempts, &run.Planned,
		&cancelled, &stoppedEarly, &run.IOErrors,
		&run.Params.Offset.Min, &run.Params.Offset.Max, &run.Params.Offset.Step,
		&run.Params.Width.Min, &run.Params.Width.Max, &run.Params.Width.Step,
		&run.Params.AttemptsPerSetting, &stopOnSuccess,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return campaign.Run{}, fmt.Errorf("querying campaign run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt) //nolint:errcheck // Format is controlled
	run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	run.Cancelled = cancelled != 0
	run.StoppedEarly = stoppedEarly != 0
	run.Params.StopOnSuccess = stopOnSuccess != 0

	rows, err := r.db.QueryContext(ctx,
		`SELECT glitch_offset, glitch_width, attempt, matched, at
		 FROM campaign_successes WHERE run_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return campaign.Run{}, fmt.Errorf("querying campaign successes: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	for rows.Next() {
		var s campaign.Success
		var at string
		if err := rows.Scan(&s.Offset, &s.Width, &s.Attempt, &s.Matched, &at); err != nil {
			return campaign.Run{}, fmt.Errorf("scanning campaign success: %w", err)
		}
		s.At, _ = time.Parse(time.RFC3339Nano, at) //nolint:errcheck // Format is controlled
		run.Successes = append(run.Successes, s)
	}
	if err := rows.Err(); err != nil {
		return campaign.Run{}, fmt.Errorf("iterating campaign successes: %w", err)
	}
	return run, nil
}

// List returns run summaries, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, r.attempts, r.planned, r.cancelled, r.stopped_early,
		        (SELECT COUNT(*) FROM campaign_successes s WHERE s.run_id = r.id)
		 FROM campaign_runs r
		 ORDER BY r.started_at DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying campaign runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var startedAt string
		var cancelled, stoppedEarly int
		if err := rows.Scan(&s.ID, &startedAt, &s.Attempts, &s.Planned,
			&cancelled, &stoppedEarly, &s.Successes); err != nil {
			return nil, fmt.Errorf("scanning campaign run row: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt) //nolint:errcheck // Format is controlled
		s.Cancelled = cancelled != 0
		s.StoppedEarly = stoppedEarly != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campaign runs: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
