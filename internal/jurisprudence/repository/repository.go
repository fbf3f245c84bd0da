package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, external_id, process_number, classe, relator, orgao_julgador,
		judgment_date, publication_date, summary, highlight_terms, legal_references, notes`

// Repo implements the local search index over Postgres full-text search.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new decision record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Search runs a ranked portuguese full-text query over decision summaries.
func (r *Repo) Search(ctx context.Context, params SearchParams) ([]DecisionRecord, int, error) {
	whereClauses := []string{"search_vector @@ q"}
	args := []interface{}{params.Query}

	if params.Unit != "" {
		args = append(args, params.Unit)
		whereClauses = append(whereClauses, fmt.Sprintf("orgao_julgador = $%d", len(args)))
	}
	if params.Classe != "" {
		args = append(args, "%"+params.Classe+"%")
		whereClauses = append(whereClauses, fmt.Sprintf("classe ILIKE $%d", len(args)))
	}
	if params.DateFrom != nil {
		args = append(args, *params.DateFrom)
		whereClauses = append(whereClauses, fmt.Sprintf("judgment_date >= $%d", len(args)))
	}
	if params.DateTo != nil {
		args = append(args, *params.DateTo)
		whereClauses = append(whereClauses, fmt.Sprintf("judgment_date <= $%d", len(args)))
	}

	where := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM decision_records, websearch_to_tsquery('portuguese', $1) AS q
		WHERE %s`, where)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count decision records: %w", err)
	}

	limitArg := len(args) + 1
	offsetArg := len(args) + 2
	query := fmt.Sprintf(`
		SELECT %s, ts_rank(search_vector, q) AS relevance
		FROM decision_records, websearch_to_tsquery('portuguese', $1) AS q
		WHERE %s
		ORDER BY relevance DESC, judgment_date DESC NULLS LAST
		LIMIT $%d OFFSET $%d`, recordColumns, where, limitArg, offsetArg)

	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search decision records: %w", err)
	}
	defer rows.Close()

	records := make([]DecisionRecord, 0, params.Limit)
	for rows.Next() {
		var rec DecisionRecord
		if err := rows.Scan(
			&rec.ID, &rec.ExternalID, &rec.ProcessNumber, &rec.Classe, &rec.Relator,
			&rec.OrgaoJulgador, &rec.JudgmentDate, &rec.PublicationDate, &rec.Summary,
			&rec.HighlightTerms, &rec.LegalReferences, &rec.Notes, &rec.Relevance,
		); err != nil {
			return nil, 0, fmt.Errorf("scan decision record: %w", err)
		}
		rec.SourceType = SourceLocal
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate decision records: %w", err)
	}

	return records, total, nil
}

const upsertQuery = `
	INSERT INTO decision_records (
		external_id, process_number, classe, relator, orgao_julgador,
		judgment_date, publication_date, summary, highlight_terms, legal_references, notes
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (external_id) DO UPDATE SET
		summary          = EXCLUDED.summary,
		highlight_terms  = EXCLUDED.highlight_terms,
		legal_references = EXCLUDED.legal_references,
		notes            = COALESCE(EXCLUDED.notes, decision_records.notes),
		relator          = COALESCE(EXCLUDED.relator, decision_records.relator),
		judgment_date    = COALESCE(EXCLUDED.judgment_date, decision_records.judgment_date),
		publication_date = COALESCE(EXCLUDED.publication_date, decision_records.publication_date),
		updated_at       = now()`

// Upsert inserts or updates a record keyed on external_id. Only enrichment
// fields are overwritten; identity fields are immutable after creation.
func (r *Repo) Upsert(ctx context.Context, rec DecisionRecord) error {
	if _, err := r.pool.Exec(ctx, upsertQuery,
		rec.ExternalID, rec.ProcessNumber, rec.Classe, rec.Relator, rec.OrgaoJulgador,
		rec.JudgmentDate, rec.PublicationDate, rec.Summary,
		asTextArray(rec.HighlightTerms), asTextArray(rec.LegalReferences), rec.Notes,
	); err != nil {
		return fmt.Errorf("upsert decision record %s: %w", rec.ExternalID, err)
	}
	return nil
}

// UpsertBatch writes a chunk of records one by one so a single bad record
// cannot poison the whole chunk. The error return is reserved for total
// failures (e.g. a dead connection); per-record failures only count.
func (r *Repo) UpsertBatch(ctx context.Context, records []DecisionRecord) (int, int, error) {
	written := 0
	failed := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return written, failed, err
		}
		if err := r.Upsert(ctx, records[i]); err != nil {
			failed++
			continue
		}
		written++
	}
	return written, failed, nil
}

// ExistsByProcessNumber reports whether any record carries the process number.
func (r *Repo) ExistsByProcessNumber(ctx context.Context, processNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM decision_records WHERE process_number = $1)`
	if err := r.pool.QueryRow(ctx, query, processNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by process number: %w", err)
	}
	return exists, nil
}

// CountAll returns the total number of cached records.
func (r *Repo) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM decision_records`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count all decision records: %w", err)
	}
	return total, nil
}

// asTextArray normalizes nil slices so text[] columns never receive NULL.
func asTextArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
