// Package transport defines request/response DTOs for the bulk sync API.
package transport

import "time"

// SyncRequest triggers a bulk sync run. All fields are optional; zero
// values fall back to the configured defaults. Async hands the run to the
// background worker instead of holding the HTTP request open for it.
type SyncRequest struct {
	Unit     string `json:"unit" validate:"omitempty,min=3,max=64"`
	MaxFiles int    `json:"maxFiles" validate:"omitempty,min=1,max=20"`
	Force    bool   `json:"force"`
	Async    bool   `json:"async"`
}

// SyncAcceptedResponse acknowledges an async run handed to the worker.
type SyncAcceptedResponse struct {
	Enqueued bool   `json:"enqueued"`
	Unit     string `json:"unit,omitempty"`
	MaxFiles int    `json:"maxFiles,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

// SyncFileResult is the outcome of one file inside a run.
type SyncFileResult struct {
	Unit     string `json:"unit"`
	File     string `json:"file"`
	Status   string `json:"status"`
	Imported int    `json:"imported"`
	Error    string `json:"error,omitempty"`
}

// SyncSummary aggregates a run.
type SyncSummary struct {
	Processed        int `json:"processed"`
	Success          int `json:"success"`
	Error            int `json:"error"`
	Skipped          int `json:"skipped"`
	RecordsImported  int `json:"recordsImported"`
	RemainingPending int `json:"remainingPending"`
}

// SyncRunResponse is the full response of POST /jurisprudencia/sync.
type SyncRunResponse struct {
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Files      []SyncFileResult `json:"files"`
	Summary    SyncSummary      `json:"summary"`
}

// UnitStatusDTO is the per-unit breakdown of the status snapshot.
type UnitStatusDTO struct {
	Unit            string     `json:"unit"`
	DiscoveredFiles int        `json:"discoveredFiles"`
	ImportedFiles   int        `json:"importedFiles"`
	PendingFiles    int        `json:"pendingFiles"`
	ErrorFiles      int        `json:"errorFiles"`
	LastFinishedAt  *time.Time `json:"lastFinishedAt,omitempty"`
}

// StatusSnapshot is the response of GET /jurisprudencia/sync/status.
type StatusSnapshot struct {
	Units           []UnitStatusDTO `json:"units"`
	TotalDiscovered int             `json:"totalDiscovered"`
	TotalImported   int             `json:"totalImported"`
	TotalPending    int             `json:"totalPending"`
	LocalRecords    int             `json:"localRecords"`
	LastSyncAt      *time.Time      `json:"lastSyncAt,omitempty"`
}
