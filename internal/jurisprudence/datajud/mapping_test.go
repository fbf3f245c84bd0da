package datajud

import (
	"testing"
	"time"
)

func TestParseDate_AcceptsBothSourceFormats(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	got := ParseDate("20240115")
	if got == nil || !got.Equal(want) {
		t.Fatalf("compact form: expected %v, got %v", want, got)
	}

	got = ParseDate("2024-01-15T00:00:00")
	if got == nil || !got.Equal(want) {
		t.Fatalf("ISO form: expected %v, got %v", want, got)
	}
}

func TestParseDate_InvalidInputsReturnNil(t *testing.T) {
	cases := []string{
		"202413xx",   // invalid month with garbage
		"20241301",   // month 13
		"20240230",   // February 30th
		"2024-13-01", // ISO with invalid month
		"15/01/2024", // unsupported delimiter
		"18991231",   // out of accepted year range
		"",
		"amanhã",
	}

	for _, value := range cases {
		if got := ParseDate(value); got != nil {
			t.Fatalf("expected nil for %q, got %v", value, got)
		}
	}
}

func TestMapRecord_SummaryFromMostRecentJudgmentMovement(t *testing.T) {
	raw := RawDecision{
		ID:             "TRF1-001",
		NumeroProcesso: "0001234-56.2020.4.01.3800",
		Movimentos: []Movimento{
			{
				Nome:     "Julgamento",
				DataHora: "2021-03-10T14:00:00",
				ComplementosTabelados: []Complemento{
					{Descricao: "Recurso não provido"},
				},
			},
			{
				Nome:     "Julgamento de mérito",
				DataHora: "2023-06-01T09:00:00",
				ComplementosTabelados: []Complemento{
					{Descricao: "Apelação provida em parte"},
					{Descricao: "Sentença reformada"},
				},
			},
			{Nome: "Distribuição", DataHora: "2020-01-05T08:00:00"},
		},
	}

	rec := MapRecord(raw)

	if rec.Summary != "Apelação provida em parte. Sentença reformada" {
		t.Fatalf("expected summary from most recent judgment movement, got %q", rec.Summary)
	}
	if rec.JudgmentDate == nil || rec.JudgmentDate.Year() != 2023 {
		t.Fatalf("expected judgment date 2023, got %v", rec.JudgmentDate)
	}
	if rec.ProcessNumber == nil || *rec.ProcessNumber != "0001234-56.2020.4.01.3800" {
		t.Fatalf("unexpected process number: %v", rec.ProcessNumber)
	}
}

func TestMapRecord_FallsBackToSubjectsThenSentinel(t *testing.T) {
	withSubjects := MapRecord(RawDecision{
		ID:       "TRF1-002",
		Assuntos: []NamedCode{{Nome: "Dano Moral"}, {Nome: "Responsabilidade Civil"}},
	})
	if withSubjects.Summary != "Assuntos: Dano Moral; Responsabilidade Civil" {
		t.Fatalf("expected subject fallback summary, got %q", withSubjects.Summary)
	}

	bare := MapRecord(RawDecision{ID: "TRF1-003"})
	if bare.Summary != SummaryUnavailable {
		t.Fatalf("expected sentinel summary, got %q", bare.Summary)
	}
}

func TestMapRecord_MissingFieldsAreTolerated(t *testing.T) {
	rec := MapRecord(RawDecision{
		ID:              "TRF1-004",
		DataAjuizamento: "não informado",
	})

	if rec.ProcessNumber != nil {
		t.Fatalf("expected nil process number, got %v", rec.ProcessNumber)
	}
	if rec.Classe != nil || rec.Relator != nil {
		t.Fatal("expected nil classe and relator for empty source")
	}
	if rec.JudgmentDate != nil || rec.PublicationDate != nil {
		t.Fatal("expected nil dates for unparseable input")
	}
	if len(rec.HighlightTerms) != 0 || len(rec.LegalReferences) != 0 {
		t.Fatal("expected empty term lists")
	}
}
