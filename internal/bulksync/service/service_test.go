package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"jurisprudencia_backend/internal/bulksync/catalog"
	syncrepo "jurisprudencia_backend/internal/bulksync/repository"
	"jurisprudencia_backend/internal/jurisprudence/repository"
	"jurisprudencia_backend/platform/logger"
)

type fakeCatalog struct {
	files map[string][]catalog.Resource
	err   map[string]error
	calls int
}

func (f *fakeCatalog) ListFiles(_ context.Context, datasetID string) ([]catalog.Resource, error) {
	f.calls++
	if err := f.err[datasetID]; err != nil {
		return nil, err
	}
	return f.files[datasetID], nil
}

type fakeDownloader struct {
	bodies map[string]string
	err    map[string]error
	calls  int
}

func (f *fakeDownloader) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f.calls++
	if err := f.err[url]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("no body registered for %s", url)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type fakeSyncLog struct {
	entries   map[string]*syncrepo.SyncLogEntry
	stats     []syncrepo.UnitStat
	startErr  error
	successes int
}

func newFakeSyncLog() *fakeSyncLog {
	return &fakeSyncLog{entries: make(map[string]*syncrepo.SyncLogEntry)}
}

func (f *fakeSyncLog) Start(_ context.Context, unit, file string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.entries[syncrepo.Key(unit, file)] = &syncrepo.SyncLogEntry{
		Unit: unit, File: file, Status: syncrepo.StatusProcessing, StartedAt: time.Now(),
	}
	return nil
}

func (f *fakeSyncLog) Finish(_ context.Context, unit, file, status string, importedCount int, errorMessage *string) error {
	entry, ok := f.entries[syncrepo.Key(unit, file)]
	if !ok {
		return errors.New("entry not started")
	}
	now := time.Now()
	entry.Status = status
	entry.ImportedCount = importedCount
	entry.FinishedAt = &now
	entry.ErrorMessage = errorMessage
	if status == syncrepo.StatusSuccess {
		f.successes++
	}
	return nil
}

func (f *fakeSyncLog) GetEntry(_ context.Context, unit, file string) (*syncrepo.SyncLogEntry, error) {
	return f.entries[syncrepo.Key(unit, file)], nil
}

func (f *fakeSyncLog) SuccessfulFiles(_ context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for key, entry := range f.entries {
		if entry.Status == syncrepo.StatusSuccess {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeSyncLog) UnitStats(_ context.Context) ([]syncrepo.UnitStat, error) {
	return f.stats, nil
}

type fakeStore struct {
	records    map[string]repository.DecisionRecord
	failIDs    map[string]bool
	batchCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]repository.DecisionRecord)}
}

func (f *fakeStore) UpsertBatch(_ context.Context, records []repository.DecisionRecord) (int, int, error) {
	f.batchCalls++
	written, failed := 0, 0
	for _, record := range records {
		if f.failIDs[record.ExternalID] {
			failed++
			continue
		}
		f.records[record.ExternalID] = record
		written++
	}
	return written, failed, nil
}

func (f *fakeStore) CountAll(_ context.Context) (int, error) {
	return len(f.records), nil
}

type noopSleeper struct{ slept []time.Duration }

func (s *noopSleeper) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

func bulkBody(ids ...string) string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, fmt.Sprintf(`{"id":%q,"numeroProcesso":"000%s","assuntos":[{"nome":"Aposentadoria"}]}`, id, id))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func newTestService(cat *fakeCatalog, dl *fakeDownloader, syncLog *fakeSyncLog, store *fakeStore, units []string, maxFiles int) *Service {
	cfg := Config{
		Units:     units,
		MaxFiles:  maxFiles,
		UnitDelay: 100 * time.Millisecond,
		FileDelay: 100 * time.Millisecond,
	}
	return NewService(cat, dl, syncLog, store, &noopSleeper{}, cfg, logger.New("test"))
}

func TestRunImportsPendingFiles(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {
			{Name: "julgados-primeira-camara_20240201.json", URL: "u/feb"},
			{Name: "julgados-primeira-camara_20240101.json", URL: "u/jan"},
		},
	}}
	dl := &fakeDownloader{bodies: map[string]string{
		"u/feb": bulkBody("a1", "a2"),
		"u/jan": bulkBody("b1"),
	}}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	svc := newTestService(cat, dl, syncLog, store, []string{"primeira-camara"}, 5)

	result, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Summary.Processed != 2 || result.Summary.Success != 2 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if result.Summary.RecordsImported != 3 {
		t.Errorf("expected 3 records imported, got %d", result.Summary.RecordsImported)
	}
	if len(store.records) != 3 {
		t.Errorf("expected 3 stored records, got %d", len(store.records))
	}
	if syncLog.successes != 2 {
		t.Errorf("expected 2 success entries, got %d", syncLog.successes)
	}
}

func TestRunResumesAcrossBudgetedRuns(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {
			{Name: "f_20240301.json", URL: "u/3"},
			{Name: "f_20240201.json", URL: "u/2"},
			{Name: "f_20240101.json", URL: "u/1"},
		},
	}}
	dl := &fakeDownloader{bodies: map[string]string{
		"u/1": bulkBody("r1"), "u/2": bulkBody("r2"), "u/3": bulkBody("r3"),
	}}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	svc := newTestService(cat, dl, syncLog, store, []string{"primeira-camara"}, 2)

	first, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Summary.Processed != 2 || first.Summary.RemainingPending != 1 {
		t.Fatalf("unexpected first summary: %+v", first.Summary)
	}

	second, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Summary.Processed != 1 || second.Summary.RemainingPending != 0 {
		t.Fatalf("unexpected second summary: %+v", second.Summary)
	}
	if dl.calls != 3 {
		t.Errorf("expected each file downloaded once, got %d fetches", dl.calls)
	}

	third, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Summary.Processed != 0 {
		t.Errorf("expected nothing to process on third run, got %+v", third.Summary)
	}
}

func TestRunForceReimportsSuccessfulFiles(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {{Name: "f_20240101.json", URL: "u/1"}},
	}}
	dl := &fakeDownloader{bodies: map[string]string{"u/1": bulkBody("r1")}}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	svc := newTestService(cat, dl, syncLog, store, []string{"primeira-camara"}, 5)

	if _, err := svc.Run(context.Background(), RunParams{}); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	if dl.calls != 1 {
		t.Fatalf("expected 1 fetch after seed run, got %d", dl.calls)
	}

	forced, err := svc.Run(context.Background(), RunParams{Force: true})
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if forced.Summary.Processed != 1 || forced.Summary.Success != 1 {
		t.Fatalf("unexpected forced summary: %+v", forced.Summary)
	}
	if dl.calls != 2 {
		t.Errorf("expected forced run to refetch, got %d fetches", dl.calls)
	}
}

func TestRunRecordsDownloadFailureAndContinues(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {
			{Name: "f_20240201.json", URL: "u/bad"},
			{Name: "f_20240101.json", URL: "u/good"},
		},
	}}
	dl := &fakeDownloader{
		bodies: map[string]string{"u/good": bulkBody("r1")},
		err:    map[string]error{"u/bad": errors.New("connection reset")},
	}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	svc := newTestService(cat, dl, syncLog, store, []string{"primeira-camara"}, 5)

	result, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Summary.Error != 1 || result.Summary.Success != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}

	entry, _ := syncLog.GetEntry(context.Background(), "primeira-camara", "f_20240201.json")
	if entry == nil || entry.Status != syncrepo.StatusError {
		t.Fatalf("expected error entry for failed file, got %+v", entry)
	}
	if entry.ErrorMessage == nil || !strings.Contains(*entry.ErrorMessage, "connection reset") {
		t.Errorf("expected error message recorded, got %+v", entry.ErrorMessage)
	}

	retry, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if retry.Summary.Processed != 1 {
		t.Errorf("expected the failed file retried, got %+v", retry.Summary)
	}
}

func TestRunMarksPartialOnRecordFailures(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {{Name: "f_20240101.json", URL: "u/1"}},
	}}
	dl := &fakeDownloader{bodies: map[string]string{"u/1": bulkBody("ok1", "bad", "ok2")}}
	syncLog := newFakeSyncLog()
	store := newFakeStore()
	store.failIDs = map[string]bool{"bad": true}

	svc := newTestService(cat, dl, syncLog, store, []string{"primeira-camara"}, 5)

	result, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file result, got %d", len(result.Files))
	}
	file := result.Files[0]
	if file.Status != syncrepo.StatusPartial {
		t.Errorf("expected partial status, got %s", file.Status)
	}
	if file.Imported != 2 {
		t.Errorf("expected 2 imports, got %d", file.Imported)
	}
	if !strings.Contains(file.Error, "1 registros") {
		t.Errorf("expected failed count in message, got %q", file.Error)
	}

	// Partial files are not successes, so the next run retries them.
	retry, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if retry.Summary.Processed != 1 {
		t.Errorf("expected partial file retried, got %+v", retry.Summary)
	}
}

func TestRunDecodeFailureKeepsChunkProgress(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {{Name: "f_20240101.json", URL: "u/1"}},
	}}
	dl := &fakeDownloader{bodies: map[string]string{"u/1": `{"not":"an array"}`}}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	svc := newTestService(cat, dl, syncLog, store, []string{"primeira-camara"}, 5)

	result, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Files[0].Status != syncrepo.StatusError {
		t.Errorf("expected error status for malformed file, got %s", result.Files[0].Status)
	}
}

func TestRunUnitFilterAndCatalogFailureIsolation(t *testing.T) {
	cat := &fakeCatalog{
		files: map[string][]catalog.Resource{
			"julgados-primeira-camara": {{Name: "f_20240101.json", URL: "u/1"}},
			"julgados-segunda-camara":  {{Name: "g_20240101.json", URL: "u/2"}},
		},
		err: map[string]error{"julgados-terceira-camara": errors.New("catalog down")},
	}
	dl := &fakeDownloader{bodies: map[string]string{
		"u/1": bulkBody("r1"), "u/2": bulkBody("r2"),
	}}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	units := []string{"primeira-camara", "segunda-camara", "terceira-camara"}
	svc := newTestService(cat, dl, syncLog, store, units, 5)

	result, err := svc.Run(context.Background(), RunParams{Unit: "segunda-camara"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Summary.Processed != 1 || result.Files[0].Unit != "segunda-camara" {
		t.Fatalf("expected only segunda-camara processed, got %+v", result.Files)
	}

	// A unit whose catalog call fails contributes nothing but does not
	// abort the full run.
	all, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("full run: %v", err)
	}
	if all.Summary.Processed != 1 {
		t.Fatalf("expected only the remaining pending file, got %+v", all.Summary)
	}
}

func TestStatusPerformsNoWritesOrDownloads(t *testing.T) {
	cat := &fakeCatalog{files: map[string][]catalog.Resource{
		"julgados-primeira-camara": {
			{Name: "f_20240201.json", URL: "u/2"},
			{Name: "f_20240101.json", URL: "u/1"},
		},
		"julgados-segunda-camara": {{Name: "g_20240101.json", URL: "u/3"}},
	}}
	dl := &fakeDownloader{}
	syncLog := newFakeSyncLog()
	store := newFakeStore()

	units := []string{"primeira-camara", "segunda-camara"}
	svc := newTestService(cat, dl, syncLog, store, units, 5)

	// Mark one file as already imported.
	_ = syncLog.Start(context.Background(), "primeira-camara", "f_20240101.json")
	_ = syncLog.Finish(context.Background(), "primeira-camara", "f_20240101.json", syncrepo.StatusSuccess, 10, nil)
	finished := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	syncLog.stats = []syncrepo.UnitStat{
		{Unit: "primeira-camara", SuccessCount: 1, LastFinishedAt: &finished},
	}
	store.records["seed"] = repository.DecisionRecord{ExternalID: "seed"}

	snapshot, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}

	if dl.calls != 0 {
		t.Fatalf("status must not download files, got %d fetches", dl.calls)
	}
	if snapshot.TotalDiscovered != 3 || snapshot.TotalImported != 1 || snapshot.TotalPending != 2 {
		t.Fatalf("unexpected totals: %+v", snapshot)
	}
	if snapshot.LocalRecords != 1 {
		t.Errorf("expected 1 local record, got %d", snapshot.LocalRecords)
	}
	if snapshot.LastSyncAt == nil || !snapshot.LastSyncAt.Equal(finished) {
		t.Errorf("unexpected last sync time: %v", snapshot.LastSyncAt)
	}

	if len(snapshot.Units) != 2 {
		t.Fatalf("expected 2 unit breakdowns, got %d", len(snapshot.Units))
	}
	first := snapshot.Units[0]
	if first.Unit != "primeira-camara" || first.DiscoveredFiles != 2 || first.PendingFiles != 1 {
		t.Errorf("unexpected unit breakdown: %+v", first)
	}

	entries := len(syncLog.entries)
	if entries != 1 {
		t.Errorf("status must not create sync log entries, have %d", entries)
	}
}

func TestRunBudgetDefaultsAndCap(t *testing.T) {
	resources := make([]catalog.Resource, 0, 30)
	bodies := make(map[string]string, 30)
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("f_202401%02d.json", i+1)
		url := fmt.Sprintf("u/%d", i)
		resources = append(resources, catalog.Resource{Name: name, URL: url})
		bodies[url] = bulkBody(fmt.Sprintf("r%d", i))
	}
	cat := &fakeCatalog{files: map[string][]catalog.Resource{"julgados-primeira-camara": resources}}
	dl := &fakeDownloader{bodies: bodies}

	svc := newTestService(cat, dl, newFakeSyncLog(), newFakeStore(), []string{"primeira-camara"}, 0)

	result, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Summary.Processed != defaultMaxFiles {
		t.Errorf("expected default budget %d, got %d", defaultMaxFiles, result.Summary.Processed)
	}

	capped, err := svc.Run(context.Background(), RunParams{MaxFiles: 100})
	if err != nil {
		t.Fatalf("capped run: %v", err)
	}
	if capped.Summary.Processed != maxFilesCap {
		t.Errorf("expected cap %d, got %d", maxFilesCap, capped.Summary.Processed)
	}
}
