// Package transport defines the request/response shapes of the
// jurisprudence search endpoint. The presentation layer consumes these
// verbatim.
package transport

import (
	"time"

	"github.com/google/uuid"

	"jurisprudencia_backend/internal/jurisprudence/repository"
)

// SearchRequest is the query-bound search input.
type SearchRequest struct {
	Query           string `form:"q" validate:"required,min=3"`
	Unit            string `form:"unit" validate:"omitempty,max=120"`
	Classe          string `form:"classe" validate:"omitempty,max=120"`
	DateFrom        string `form:"dataInicio" validate:"omitempty,max=10"`
	DateTo          string `form:"dataFim" validate:"omitempty,max=10"`
	Page            int    `form:"page" validate:"omitempty,min=1"`
	Limit           int    `form:"limit" validate:"omitempty,min=1,max=50"`
	FetchRemote     bool   `form:"buscarDatajud"`
	MinLocalResults int    `form:"minLocal" validate:"omitempty,min=0,max=50"`
}

// RecordDTO is the wire form of a decision record.
type RecordDTO struct {
	ID              string   `json:"id,omitempty"`
	ExternalID      string   `json:"externalId"`
	ProcessNumber   *string  `json:"processNumber"`
	Classe          *string  `json:"classe"`
	Relator         *string  `json:"relator"`
	OrgaoJulgador   string   `json:"orgaoJulgador"`
	JudgmentDate    *string  `json:"judgmentDate"`
	PublicationDate *string  `json:"publicationDate"`
	Summary         string   `json:"summary"`
	HighlightTerms  []string `json:"highlightTerms"`
	LegalReferences []string `json:"legalReferences"`
	Notes           *string  `json:"notes"`
	SourceType      string   `json:"sourceType"`
	Relevance       float64  `json:"relevance"`
}

// Pagination describes the merged result window.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SearchResponse is the hybrid search result envelope.
type SearchResponse struct {
	Records     []RecordDTO `json:"records"`
	Pagination  Pagination  `json:"pagination"`
	Source      string      `json:"source"`
	Imported    int         `json:"imported"`
	LocalCount  int         `json:"localCount"`
	RemoteCount int         `json:"remoteCount"`
}

// ToRecordDTO converts a canonical record to its wire form.
func ToRecordDTO(rec repository.DecisionRecord) RecordDTO {
	dto := RecordDTO{
		ExternalID:      rec.ExternalID,
		ProcessNumber:   rec.ProcessNumber,
		Classe:          rec.Classe,
		Relator:         rec.Relator,
		OrgaoJulgador:   rec.OrgaoJulgador,
		JudgmentDate:    formatDate(rec.JudgmentDate),
		PublicationDate: formatDate(rec.PublicationDate),
		Summary:         rec.Summary,
		HighlightTerms:  rec.HighlightTerms,
		LegalReferences: rec.LegalReferences,
		Notes:           rec.Notes,
		SourceType:      rec.SourceType,
		Relevance:       rec.Relevance,
	}
	if rec.ID != uuid.Nil {
		dto.ID = rec.ID.String()
	}
	return dto
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format("2006-01-02")
	return &formatted
}
