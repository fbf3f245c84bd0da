package datajud

import (
	"strings"
	"time"

	"jurisprudencia_backend/internal/jurisprudence/repository"
)

// SummaryUnavailable is emitted when neither a judgment movement nor the
// subject list yields any usable summary text. Records are never dropped
// for lacking a summary.
const SummaryUnavailable = "Ementa não disponível na fonte."

// RawDecision is the heterogeneous source shape shared by the public search
// API and the bulk files on the open-data catalog. Every field is optional;
// deployments disagree about which ones they populate.
type RawDecision struct {
	ID              string      `json:"id"`
	NumeroProcesso  string      `json:"numeroProcesso"`
	Classe          *NamedCode  `json:"classe"`
	OrgaoJulgador   *NamedCode  `json:"orgaoJulgador"`
	Relator         string      `json:"relator"`
	DataAjuizamento string      `json:"dataAjuizamento"`
	DataPublicacao  string      `json:"dataPublicacao"`
	Assuntos        []NamedCode `json:"assuntos"`
	Movimentos      []Movimento `json:"movimentos"`
	Referencias     []string    `json:"referenciasLegislativas"`
}

// NamedCode is the CNJ tabulated (code, name) pair.
type NamedCode struct {
	Codigo int    `json:"codigo"`
	Nome   string `json:"nome"`
}

// Movimento is one procedural movement of a process.
type Movimento struct {
	Codigo                int           `json:"codigo"`
	Nome                  string        `json:"nome"`
	DataHora              string        `json:"dataHora"`
	ComplementosTabelados []Complemento `json:"complementosTabelados"`
}

// Complemento is a tabulated complement attached to a movement.
type Complemento struct {
	Codigo    int    `json:"codigo"`
	Nome      string `json:"nome"`
	Descricao string `json:"descricao"`
	Valor     int    `json:"valor"`
}

// MapRecord converts a raw source hit into the canonical record. It never
// fails: missing fields map to nils, an unusable summary maps to the
// sentinel text.
func MapRecord(raw RawDecision) repository.DecisionRecord {
	rec := repository.DecisionRecord{
		ExternalID:      strings.TrimSpace(raw.ID),
		ProcessNumber:   optionalString(raw.NumeroProcesso),
		Relator:         optionalString(raw.Relator),
		PublicationDate: ParseDate(raw.DataPublicacao),
		SourceType:      repository.SourceDataJud,
		HighlightTerms:  []string{},
		LegalReferences: []string{},
	}

	if raw.Classe != nil {
		rec.Classe = optionalString(raw.Classe.Nome)
	}
	if raw.OrgaoJulgador != nil {
		rec.OrgaoJulgador = strings.TrimSpace(raw.OrgaoJulgador.Nome)
	}

	for _, assunto := range raw.Assuntos {
		if name := strings.TrimSpace(assunto.Nome); name != "" {
			rec.HighlightTerms = append(rec.HighlightTerms, name)
		}
	}
	if len(raw.Referencias) > 0 {
		rec.LegalReferences = append(rec.LegalReferences, raw.Referencias...)
	}

	judgment, judgmentDate := latestJudgmentMovement(raw.Movimentos)
	if judgment != nil {
		rec.Summary = joinComplements(judgment.ComplementosTabelados)
		rec.JudgmentDate = judgmentDate
	}
	if rec.Summary == "" && len(rec.HighlightTerms) > 0 {
		rec.Summary = "Assuntos: " + strings.Join(rec.HighlightTerms, "; ")
	}
	if rec.Summary == "" {
		rec.Summary = SummaryUnavailable
	}

	return rec
}

// latestJudgmentMovement picks the most recent movement whose name marks a
// judgment. Movements without a parseable date lose to dated ones but still
// qualify when nothing better exists.
func latestJudgmentMovement(movements []Movimento) (*Movimento, *time.Time) {
	var picked *Movimento
	var pickedDate *time.Time

	for i := range movements {
		mov := &movements[i]
		if !strings.Contains(strings.ToLower(mov.Nome), "julgamento") {
			continue
		}
		movDate := ParseDate(mov.DataHora)
		switch {
		case picked == nil:
			picked, pickedDate = mov, movDate
		case movDate != nil && (pickedDate == nil || movDate.After(*pickedDate)):
			picked, pickedDate = mov, movDate
		}
	}

	return picked, pickedDate
}

func joinComplements(complements []Complemento) string {
	parts := make([]string, 0, len(complements))
	for _, comp := range complements {
		if desc := strings.TrimSpace(comp.Descricao); desc != "" {
			parts = append(parts, desc)
		}
	}
	return strings.Join(parts, ". ")
}

// ParseDate accepts the two date shapes the source emits: ISO strings that
// start with YYYY-MM-DD (any time suffix ignored) and undelimited YYYYMMDD.
// Anything else, including out-of-range components, yields nil — a bad date
// must never fail a record.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)

	if len(value) >= 10 && value[4] == '-' && value[7] == '-' {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return validated(t)
		}
		return nil
	}

	if len(value) == 8 && isDigits(value) {
		t, err := time.Parse("20060102", value)
		if err != nil {
			return nil
		}
		return validated(t)
	}

	return nil
}

func validated(t time.Time) *time.Time {
	if t.Year() < 1900 || t.Year() > 2100 {
		return nil
	}
	return &t
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
