// Package service implements the bulk sync manager: catalog discovery,
// diffing against the sync log and sequential, resumable file imports.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"jurisprudencia_backend/internal/bulksync/catalog"
	syncrepo "jurisprudencia_backend/internal/bulksync/repository"
	"jurisprudencia_backend/internal/bulksync/transport"
	"jurisprudencia_backend/internal/jurisprudence/datajud"
	"jurisprudencia_backend/internal/jurisprudence/repository"
	"jurisprudencia_backend/platform/logger"
)

const (
	// upsertChunkSize bounds memory while streaming a bulk file.
	upsertChunkSize = 100

	defaultMaxFiles = 3
	maxFilesCap     = 20
)

// CatalogClient discovers the downloadable files of a dataset.
type CatalogClient interface {
	ListFiles(ctx context.Context, datasetID string) ([]catalog.Resource, error)
}

// Downloader fetches a bulk file by URL. The returned body must be closed
// by the caller.
type Downloader interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// RecordStore is the slice of the decision record repository the sync
// pipeline writes through.
type RecordStore interface {
	UpsertBatch(ctx context.Context, records []repository.DecisionRecord) (written int, failed int, err error)
	CountAll(ctx context.Context) (int, error)
}

// Sleeper injects the inter-request delays so tests run without wall-clock
// waits.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// NewSleeper returns the wall-clock sleeper used outside tests.
func NewSleeper() Sleeper { return realSleeper{} }

// PendingFile is a discovered bulk file, resolved to its unit.
type PendingFile struct {
	Unit string
	Name string
	URL  string
}

// RunParams controls one sync run.
type RunParams struct {
	Unit     string
	MaxFiles int
	Force    bool
}

// Config carries the tunables of the sync manager.
type Config struct {
	Units           []string
	MaxFiles        int
	UnitDelay       time.Duration
	FileDelay       time.Duration
	DownloadTimeout time.Duration
}

// Service orchestrates bulk sync runs and status snapshots.
type Service struct {
	catalog    CatalogClient
	downloader Downloader
	syncLog    syncrepo.Repository
	records    RecordStore
	sleeper    Sleeper
	log        *logger.Logger
	cfg        Config
}

// NewService creates the bulk sync manager.
func NewService(cat CatalogClient, dl Downloader, syncLog syncrepo.Repository, records RecordStore, sleeper Sleeper, cfg Config, log *logger.Logger) *Service {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}

	return &Service{
		catalog:    cat,
		downloader: dl,
		syncLog:    syncLog,
		records:    records,
		sleeper:    sleeper,
		log:        log,
		cfg:        cfg,
	}
}

func datasetID(unit string) string { return "julgados-" + unit }

// discover lists the bulk files of every configured unit (or a single one
// when onlyUnit is set). A failing dataset contributes nothing instead of
// aborting the crawl.
func (s *Service) discover(ctx context.Context, onlyUnit string) []PendingFile {
	units := s.cfg.Units
	if onlyUnit != "" {
		units = []string{onlyUnit}
	}

	var discovered []PendingFile
	for i, unit := range units {
		if i > 0 && s.cfg.UnitDelay > 0 {
			s.sleeper.Sleep(s.cfg.UnitDelay)
		}

		resources, err := s.catalog.ListFiles(ctx, datasetID(unit))
		if err != nil {
			s.log.UpstreamError("catalog", "package_show", err)
			continue
		}
		for _, resource := range resources {
			discovered = append(discovered, PendingFile{Unit: unit, Name: resource.Name, URL: resource.URL})
		}
	}

	return discovered
}

func (s *Service) pendingOf(discovered []PendingFile, imported map[string]struct{}, force bool) []PendingFile {
	if force {
		return discovered
	}

	pending := make([]PendingFile, 0, len(discovered))
	for _, file := range discovered {
		if _, ok := imported[syncrepo.Key(file.Unit, file.Name)]; !ok {
			pending = append(pending, file)
		}
	}
	return pending
}

// Status reports the catalog/sync-log diff without downloading files or
// writing anything.
func (s *Service) Status(ctx context.Context) (transport.StatusSnapshot, error) {
	discovered := s.discover(ctx, "")

	imported, err := s.syncLog.SuccessfulFiles(ctx)
	if err != nil {
		return transport.StatusSnapshot{}, fmt.Errorf("load sync log: %w", err)
	}

	stats, err := s.syncLog.UnitStats(ctx)
	if err != nil {
		return transport.StatusSnapshot{}, fmt.Errorf("load unit stats: %w", err)
	}
	statByUnit := make(map[string]syncrepo.UnitStat, len(stats))
	for _, stat := range stats {
		statByUnit[stat.Unit] = stat
	}

	discoveredByUnit := make(map[string]int)
	pendingByUnit := make(map[string]int)
	for _, file := range discovered {
		discoveredByUnit[file.Unit]++
		if _, ok := imported[syncrepo.Key(file.Unit, file.Name)]; !ok {
			pendingByUnit[file.Unit]++
		}
	}

	snapshot := transport.StatusSnapshot{
		Units: make([]transport.UnitStatusDTO, 0, len(s.cfg.Units)),
	}
	for _, unit := range s.cfg.Units {
		stat := statByUnit[unit]
		dto := transport.UnitStatusDTO{
			Unit:            unit,
			DiscoveredFiles: discoveredByUnit[unit],
			ImportedFiles:   stat.SuccessCount,
			PendingFiles:    pendingByUnit[unit],
			ErrorFiles:      stat.ErrorCount,
			LastFinishedAt:  stat.LastFinishedAt,
		}
		snapshot.Units = append(snapshot.Units, dto)
		snapshot.TotalDiscovered += dto.DiscoveredFiles
		snapshot.TotalImported += dto.ImportedFiles
		snapshot.TotalPending += dto.PendingFiles

		if stat.LastFinishedAt != nil && (snapshot.LastSyncAt == nil || stat.LastFinishedAt.After(*snapshot.LastSyncAt)) {
			snapshot.LastSyncAt = stat.LastFinishedAt
		}
	}

	total, err := s.records.CountAll(ctx)
	if err != nil {
		return transport.StatusSnapshot{}, fmt.Errorf("count records: %w", err)
	}
	snapshot.LocalRecords = total

	return snapshot, nil
}

// Run executes one budgeted sync pass: discover, diff, then import the
// first MaxFiles pending files sequentially. Per-file failures are recorded
// and never abort the run.
func (s *Service) Run(ctx context.Context, params RunParams) (transport.SyncRunResponse, error) {
	budget := params.MaxFiles
	if budget <= 0 {
		budget = s.cfg.MaxFiles
	}
	if budget > maxFilesCap {
		budget = maxFilesCap
	}

	response := transport.SyncRunResponse{StartedAt: time.Now().UTC()}

	discovered := s.discover(ctx, params.Unit)

	imported, err := s.syncLog.SuccessfulFiles(ctx)
	if err != nil {
		return response, fmt.Errorf("load sync log: %w", err)
	}

	pending := s.pendingOf(discovered, imported, params.Force)

	batch := pending
	if len(batch) > budget {
		batch = batch[:budget]
	}

	for i, file := range batch {
		if i > 0 && s.cfg.FileDelay > 0 {
			s.sleeper.Sleep(s.cfg.FileDelay)
		}

		result := s.syncFile(ctx, file, params.Force)
		response.Files = append(response.Files, result)

		response.Summary.Processed++
		response.Summary.RecordsImported += result.Imported
		switch result.Status {
		case syncrepo.StatusSuccess, syncrepo.StatusPartial:
			response.Summary.Success++
		case statusSkipped:
			response.Summary.Skipped++
		default:
			response.Summary.Error++
		}

		s.log.SyncEvent(file.Unit, file.Name, result.Status, result.Imported)
	}

	response.Summary.RemainingPending = len(pending) - len(batch)
	response.FinishedAt = time.Now().UTC()

	return response, nil
}

// statusSkipped never reaches the sync log; it only marks files that were
// already imported when a forced batch raced a previous run.
const statusSkipped = "skipped"

func (s *Service) syncFile(ctx context.Context, file PendingFile, force bool) transport.SyncFileResult {
	result := transport.SyncFileResult{Unit: file.Unit, File: file.Name}

	if !force {
		entry, err := s.syncLog.GetEntry(ctx, file.Unit, file.Name)
		if err != nil {
			result.Status = syncrepo.StatusError
			result.Error = err.Error()
			return result
		}
		if entry != nil && entry.Status == syncrepo.StatusSuccess {
			result.Status = statusSkipped
			return result
		}
	}

	if err := s.syncLog.Start(ctx, file.Unit, file.Name); err != nil {
		result.Status = syncrepo.StatusError
		result.Error = err.Error()
		return result
	}

	written, failed, err := s.importFile(ctx, file.URL)
	result.Imported = written

	if err != nil {
		message := err.Error()
		result.Status = syncrepo.StatusError
		result.Error = message
		if finishErr := s.syncLog.Finish(ctx, file.Unit, file.Name, syncrepo.StatusError, written, &message); finishErr != nil {
			s.log.DatabaseError("sync_log.finish", finishErr)
		}
		return result
	}

	status := syncrepo.StatusSuccess
	var message *string
	if failed > 0 {
		status = syncrepo.StatusPartial
		text := fmt.Sprintf("%d registros falharam na importação", failed)
		message = &text
		result.Error = text
	}

	result.Status = status
	if finishErr := s.syncLog.Finish(ctx, file.Unit, file.Name, status, written, message); finishErr != nil {
		s.log.DatabaseError("sync_log.finish", finishErr)
	}

	return result
}

// importFile streams a bulk JSON array, mapping and upserting records in
// fixed-size chunks so arbitrarily large files stay bounded in memory.
func (s *Service) importFile(ctx context.Context, fileURL string) (written int, failed int, err error) {
	downloadCtx := ctx
	if s.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		downloadCtx, cancel = context.WithTimeout(ctx, s.cfg.DownloadTimeout)
		defer cancel()
	}

	body, err := s.downloader.Fetch(downloadCtx, fileURL)
	if err != nil {
		return 0, 0, fmt.Errorf("download: %w", err)
	}
	defer body.Close()

	decoder := json.NewDecoder(body)

	token, err := decoder.Token()
	if err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return 0, 0, fmt.Errorf("decode: expected JSON array, got %v", token)
	}

	chunk := make([]repository.DecisionRecord, 0, upsertChunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		w, f, err := s.records.UpsertBatch(downloadCtx, chunk)
		written += w
		failed += f
		chunk = chunk[:0]
		return err
	}

	for decoder.More() {
		var raw datajud.RawDecision
		if err := decoder.Decode(&raw); err != nil {
			return written, failed, fmt.Errorf("decode: %w", err)
		}

		record := datajud.MapRecord(raw)
		if record.ExternalID == "" {
			failed++
			continue
		}
		chunk = append(chunk, record)

		if len(chunk) == upsertChunkSize {
			if err := flush(); err != nil {
				return written, failed, fmt.Errorf("upsert: %w", err)
			}
		}
	}

	if err := flush(); err != nil {
		return written, failed, fmt.Errorf("upsert: %w", err)
	}

	return written, failed, nil
}
