package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"suitcase/internal/domain"
	"suitcase/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		uid TEXT PRIMARY KEY,
		direction TEXT NOT NULL,
		format TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		started_at REAL NOT NULL,
		finished_at REAL
	);

	CREATE TABLE IF NOT EXISTS artifacts (
		run_uid TEXT NOT NULL,
		path TEXT NOT NULL,
		kind TEXT NOT NULL,
		checksum TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_uid, path),
		FOREIGN KEY (run_uid) REFERENCES runs(uid) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// CreateRun inserts a new run
func (r *Repository) CreateRun(ctx context.Context, run *domain.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (uid, direction, format, status, reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.UID, run.Direction, run.Format, string(run.Status), stringToNull(run.Reason),
		domain.Timestamp(run.StartedAt), timePtrToNull(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// AddArtifact records a file against its run. Recording the same path twice
// replaces the earlier row.
func (r *Repository) AddArtifact(ctx context.Context, a *domain.Artifact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO artifacts (run_uid, path, kind, checksum, size)
		VALUES (?, ?, ?, ?, ?)
	`, a.RunUID, a.Path, a.Kind, stringToNull(a.Checksum), a.Size)
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	return nil
}

// FinishRun sets the final status of a run
func (r *Repository) FinishRun(ctx context.Context, uid string, status domain.RunStatus, reason string, finishedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, reason = ?, finished_at = ? WHERE uid = ?
	`, string(status), stringToNull(reason), domain.Timestamp(finishedAt), uid)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, uid)
	}
	return nil
}

// GetRun loads a run with its artifacts
func (r *Repository) GetRun(ctx context.Context, uid string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT uid, direction, format, status, reason, started_at, finished_at
		FROM runs WHERE uid = ?
	`, uid)

	var rr runRow
	err := row.Scan(&rr.uid, &rr.direction, &rr.format, &rr.status, &rr.reason, &rr.startedAt, &rr.finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run := rr.toDomain()

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_uid, path, kind, checksum, size
		FROM artifacts WHERE run_uid = ? ORDER BY rowid
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a        domain.Artifact
			checksum sql.NullString
		)
		if err := rows.Scan(&a.RunUID, &a.Path, &a.Kind, &checksum, &a.Size); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Checksum = nullToString(checksum)
		run.Artifacts = append(run.Artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read artifacts: %w", err)
	}
	run.ArtifactCount = len(run.Artifacts)

	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.uid, r.direction, r.format, r.status, r.reason, r.started_at, r.finished_at,
		       COUNT(a.path)
		FROM runs r
		LEFT JOIN artifacts a ON a.run_uid = r.uid
		GROUP BY r.uid
		ORDER BY r.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			rr    runRow
			count int
		)
		if err := rows.Scan(&rr.uid, &rr.direction, &rr.format, &rr.status, &rr.reason, &rr.startedAt, &rr.finishedAt, &count); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run := rr.toDomain()
		run.ArtifactCount = count
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
