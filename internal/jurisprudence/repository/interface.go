package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source tags describe where a record in a result set came from. They are
// assigned at read time and never persisted.
const (
	SourceLocal   = "local"
	SourceDataJud = "datajud"
)

// DecisionRecord is the canonical court-decision record. Identity is the
// source-assigned ExternalID; ProcessNumber is a secondary dedup signal and
// must never be treated as unique.
type DecisionRecord struct {
	ID              uuid.UUID  `db:"id"`
	ExternalID      string     `db:"external_id"`
	ProcessNumber   *string    `db:"process_number"`
	Classe          *string    `db:"classe"`
	Relator         *string    `db:"relator"`
	OrgaoJulgador   string     `db:"orgao_julgador"`
	JudgmentDate    *time.Time `db:"judgment_date"`
	PublicationDate *time.Time `db:"publication_date"`
	Summary         string     `db:"summary"`
	HighlightTerms  []string   `db:"highlight_terms"`
	LegalReferences []string   `db:"legal_references"`
	Notes           *string    `db:"notes"`

	// Read-time fields, not stored.
	SourceType string  `db:"-"`
	Relevance  float64 `db:"-"`
}

// SearchParams defines the ranked full-text query over the local index.
type SearchParams struct {
	Query    string
	Unit     string
	Classe   string
	DateFrom *time.Time
	DateTo   *time.Time
	Offset   int
	Limit    int
}

// Repository defines the local search index storage operations.
type Repository interface {
	// Search runs a ranked full-text query over summaries with optional
	// metadata filters, returning one page plus the total match count.
	Search(ctx context.Context, params SearchParams) ([]DecisionRecord, int, error)

	// Upsert inserts or updates a record keyed on its external ID.
	Upsert(ctx context.Context, record DecisionRecord) error

	// UpsertBatch upserts a chunk of records, tolerating per-record
	// failures. It returns the number written and the number failed.
	UpsertBatch(ctx context.Context, records []DecisionRecord) (written int, failed int, err error)

	// ExistsByProcessNumber reports whether any record carries the given
	// process number.
	ExistsByProcessNumber(ctx context.Context, processNumber string) (bool, error)

	// CountAll returns the size of the local corpus.
	CountAll(ctx context.Context) (int, error)
}
