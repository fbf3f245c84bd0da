package repository

import (
	"context"
	"time"
)

// Sync log statuses. A success entry makes its (unit, file) pair permanently
// skippable unless a caller forces reimport.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusPartial    = "partial"
	StatusError      = "error"
)

// SyncLogEntry is the durable per-(unit, file) import state, the source of
// truth for idempotent resumability.
type SyncLogEntry struct {
	Unit          string     `db:"unit"`
	File          string     `db:"file"`
	Status        string     `db:"status"`
	ImportedCount int        `db:"imported_count"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
	ErrorMessage  *string    `db:"error_message"`
}

// UnitStat aggregates sync log entries for one organizational unit.
type UnitStat struct {
	Unit           string
	SuccessCount   int
	ErrorCount     int
	LastFinishedAt *time.Time
}

// Key builds the composite lookup key used for the discovered-minus-imported
// diff.
func Key(unit, file string) string {
	return unit + "|" + file
}

// Repository defines sync log storage operations.
type Repository interface {
	// Start upserts the entry to processing, resetting any previous outcome.
	Start(ctx context.Context, unit, file string) error

	// Finish finalizes the entry with its outcome and imported count.
	Finish(ctx context.Context, unit, file, status string, importedCount int, errorMessage *string) error

	// GetEntry returns the entry for (unit, file), or nil when absent.
	GetEntry(ctx context.Context, unit, file string) (*SyncLogEntry, error)

	// SuccessfulFiles returns the set of Key(unit, file) with success status.
	SuccessfulFiles(ctx context.Context) (map[string]struct{}, error)

	// UnitStats aggregates per-unit counts and the latest finish time.
	UnitStats(ctx context.Context) ([]UnitStat, error)
}
