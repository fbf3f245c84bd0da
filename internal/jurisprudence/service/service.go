// Package service implements the hybrid search coordinator and the
// import/dedup pipeline for decision records.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"jurisprudencia_backend/internal/jurisprudence/repository"
	"jurisprudencia_backend/internal/jurisprudence/transport"
	"jurisprudencia_backend/platform/apperr"
	"jurisprudencia_backend/platform/logger"
)

const (
	msgQueryTooShort = "consulta deve ter ao menos 3 caracteres"
	msgBadDateFilter = "filtro de data inválido; use o formato AAAA-MM-DD"

	defaultLimit = 10
	maxLimit     = 50
)

// RemoteSearcher is the remote source adapter boundary.
type RemoteSearcher interface {
	Search(ctx context.Context, queryText string, limit int) ([]repository.DecisionRecord, error)
}

// FederationGovernor throttles outbound federation calls per caller.
type FederationGovernor interface {
	Acquire(callerID string) (release func(), err error)
}

// Service coordinates local-index search, remote federation, and imports.
type Service struct {
	repo            repository.Repository
	remote          RemoteSearcher
	governor        FederationGovernor
	log             *logger.Logger
	minLocalResults int
}

// New creates the jurisprudence search service. A nil remote disables
// federation entirely (local-only deployments).
func New(repo repository.Repository, remote RemoteSearcher, governor FederationGovernor, log *logger.Logger, minLocalResults int) *Service {
	if minLocalResults <= 0 {
		minLocalResults = 5
	}
	return &Service{
		repo:            repo,
		remote:          remote,
		governor:        governor,
		log:             log,
		minLocalResults: minLocalResults,
	}
}

// Search runs the hybrid flow: local first, remote only when local coverage
// is insufficient or explicitly requested, merging new remote records into
// the local cache on the way out.
func (s *Service) Search(ctx context.Context, callerID string, req transport.SearchRequest) (transport.SearchResponse, error) {
	queryText := strings.TrimSpace(req.Query)
	if utf8.RuneCountInString(queryText) < 3 {
		return transport.SearchResponse{}, apperr.Validation(msgQueryTooShort)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	dateFrom, err := parseDateFilter(req.DateFrom)
	if err != nil {
		return transport.SearchResponse{}, err
	}
	dateTo, err := parseDateFilter(req.DateTo)
	if err != nil {
		return transport.SearchResponse{}, err
	}

	local, localTotal, err := s.repo.Search(ctx, repository.SearchParams{
		Query:    queryText,
		Unit:     req.Unit,
		Classe:   req.Classe,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		s.log.DatabaseError("search decision records", err)
		return transport.SearchResponse{}, apperr.Wrap(apperr.KindInternal, "falha na busca local", err)
	}

	minLocal := req.MinLocalResults
	if minLocal <= 0 {
		minLocal = s.minLocalResults
	}

	if (localTotal >= minLocal && !req.FetchRemote) || s.remote == nil {
		resp := s.buildResponse(local, nil, 0, page, limit, localTotal)
		s.log.SearchEvent(queryText, resp.Source, resp.LocalCount, 0, 0)
		return resp, nil
	}

	release, err := s.governor.Acquire(callerID)
	if err != nil {
		return transport.SearchResponse{}, err
	}
	remote, remoteErr := s.remote.Search(ctx, queryText, limit)
	release()
	if remoteErr != nil {
		// Degrade to local-only: upstream trouble must never fail a search.
		s.log.UpstreamError("datajud", "search", remoteErr)
		remote = nil
	}

	newRemote := dropLocalDuplicates(local, remote)
	imported := s.ImportRecords(ctx, newRemote)

	resp := s.buildResponse(local, newRemote, imported, page, limit, localTotal)
	s.log.SearchEvent(queryText, resp.Source, resp.LocalCount, resp.RemoteCount, imported)
	return resp, nil
}

// ImportRecords upserts remote-sourced records into the local index. Records
// without a process number cannot be deduplicated on future runs and are
// skipped. Individual failures never abort the batch.
func (s *Service) ImportRecords(ctx context.Context, records []repository.DecisionRecord) int {
	imported := 0
	skipped := 0

	for i := range records {
		rec := records[i]
		if rec.ProcessNumber == nil || strings.TrimSpace(*rec.ProcessNumber) == "" {
			skipped++
			continue
		}

		exists, err := s.repo.ExistsByProcessNumber(ctx, *rec.ProcessNumber)
		if err != nil {
			s.log.DatabaseError("exists by process number", err)
			continue
		}
		if exists {
			continue
		}

		if err := s.repo.Upsert(ctx, rec); err != nil {
			s.log.DatabaseError("import decision record", err)
			continue
		}
		imported++
	}

	if skipped > 0 {
		s.log.Warn("records without process number skipped on import", "skipped", skipped)
	}

	return imported
}

// dropLocalDuplicates removes remote hits whose process number already
// appears in the local page, so the caller never sees the same process
// twice. Remote records lacking a process number cannot be duplicates.
func dropLocalDuplicates(local, remote []repository.DecisionRecord) []repository.DecisionRecord {
	seen := make(map[string]struct{}, len(local))
	for i := range local {
		if local[i].ProcessNumber != nil {
			seen[*local[i].ProcessNumber] = struct{}{}
		}
	}

	kept := make([]repository.DecisionRecord, 0, len(remote))
	for i := range remote {
		if pn := remote[i].ProcessNumber; pn != nil {
			if _, dup := seen[*pn]; dup {
				continue
			}
		}
		kept = append(kept, remote[i])
	}
	return kept
}

// buildResponse merges local page and new remote records, truncates to the
// page limit, and tags the source by which side actually contributed to the
// returned records. Remote hits cut off by the limit still get imported,
// but they must not influence the tag or the counts.
func (s *Service) buildResponse(local, newRemote []repository.DecisionRecord, imported, page, limit, localTotal int) transport.SearchResponse {
	merged := make([]transport.RecordDTO, 0, len(local)+len(newRemote))
	for i := range local {
		merged = append(merged, transport.ToRecordDTO(local[i]))
	}
	for i := range newRemote {
		merged = append(merged, transport.ToRecordDTO(newRemote[i]))
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	// Local records come first in the merge, so truncation only ever cuts
	// from the remote tail.
	localKept := len(local)
	if localKept > limit {
		localKept = limit
	}
	remoteKept := len(merged) - localKept

	source := repository.SourceLocal
	switch {
	case localKept > 0 && remoteKept > 0:
		source = "mixed"
	case localKept == 0 && remoteKept > 0:
		source = repository.SourceDataJud
	}

	total := localTotal + remoteKept
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return transport.SearchResponse{
		Records: merged,
		Pagination: transport.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
		Source:      source,
		Imported:    imported,
		LocalCount:  localKept,
		RemoteCount: remoteKept,
	}
}

func parseDateFilter(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperr.Validation(msgBadDateFilter)
	}
	return &t, nil
}
