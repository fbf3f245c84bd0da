package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements the sync log repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new sync log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Start upserts the (unit, file) entry to processing. A re-run of a failed
// file reuses the same row, so the log holds exactly one entry per file.
func (r *Repo) Start(ctx context.Context, unit, file string) error {
	query := `
		INSERT INTO sync_log (unit, file, status, imported_count, started_at, finished_at, error_message)
		VALUES ($1, $2, $3, 0, now(), NULL, NULL)
		ON CONFLICT (unit, file) DO UPDATE SET
			status         = EXCLUDED.status,
			imported_count = 0,
			started_at     = now(),
			finished_at    = NULL,
			error_message  = NULL`

	if _, err := r.pool.Exec(ctx, query, unit, file, StatusProcessing); err != nil {
		return fmt.Errorf("start sync log entry %s/%s: %w", unit, file, err)
	}
	return nil
}

// Finish finalizes the entry with its outcome.
func (r *Repo) Finish(ctx context.Context, unit, file, status string, importedCount int, errorMessage *string) error {
	query := `
		UPDATE sync_log
		SET status = $3, imported_count = $4, finished_at = now(), error_message = $5
		WHERE unit = $1 AND file = $2`

	result, err := r.pool.Exec(ctx, query, unit, file, status, importedCount, errorMessage)
	if err != nil {
		return fmt.Errorf("finish sync log entry %s/%s: %w", unit, file, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("finish sync log entry %s/%s: entry not started", unit, file)
	}
	return nil
}

// GetEntry returns the entry for (unit, file), or nil when absent.
func (r *Repo) GetEntry(ctx context.Context, unit, file string) (*SyncLogEntry, error) {
	query := `
		SELECT unit, file, status, imported_count, started_at, finished_at, error_message
		FROM sync_log
		WHERE unit = $1 AND file = $2`

	var entry SyncLogEntry
	err := r.pool.QueryRow(ctx, query, unit, file).Scan(
		&entry.Unit, &entry.File, &entry.Status, &entry.ImportedCount,
		&entry.StartedAt, &entry.FinishedAt, &entry.ErrorMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync log entry %s/%s: %w", unit, file, err)
	}
	return &entry, nil
}

// SuccessfulFiles returns the set of successfully imported (unit, file) keys.
func (r *Repo) SuccessfulFiles(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT unit, file FROM sync_log WHERE status = $1`, StatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("list successful sync log entries: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var unit, file string
		if err := rows.Scan(&unit, &file); err != nil {
			return nil, fmt.Errorf("scan sync log key: %w", err)
		}
		keys[Key(unit, file)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log keys: %w", err)
	}
	return keys, nil
}

// UnitStats aggregates success/error counts and the latest finish per unit.
func (r *Repo) UnitStats(ctx context.Context) ([]UnitStat, error) {
	query := `
		SELECT unit,
			COUNT(*) FILTER (WHERE status = $1) AS success_count,
			COUNT(*) FILTER (WHERE status IN ($2, $3)) AS error_count,
			MAX(finished_at) AS last_finished_at
		FROM sync_log
		GROUP BY unit
		ORDER BY unit`

	rows, err := r.pool.Query(ctx, query, StatusSuccess, StatusError, StatusPartial)
	if err != nil {
		return nil, fmt.Errorf("aggregate sync log stats: %w", err)
	}
	defer rows.Close()

	stats := make([]UnitStat, 0)
	for rows.Next() {
		var stat UnitStat
		if err := rows.Scan(&stat.Unit, &stat.SuccessCount, &stat.ErrorCount, &stat.LastFinishedAt); err != nil {
			return nil, fmt.Errorf("scan sync log stat: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log stats: %w", err)
	}
	return stats, nil
}
