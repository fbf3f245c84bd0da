// Package datajud provides the client and field mapping for the DataJud
// public judicial search API.
package datajud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jurisprudencia_backend/internal/jurisprudence/repository"
)

// Client is an HTTP client for the DataJud public search endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	tribunal   string
	httpClient *http.Client
}

// Config configures the DataJud client.
type Config struct {
	BaseURL  string
	APIKey   string
	Tribunal string
	Timeout  time.Duration
}

// NewClient creates a new DataJud client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		tribunal:   strings.TrimSpace(cfg.Tribunal),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchHit struct {
	ID     string      `json:"_id"`
	Source RawDecision `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// buildQuery assembles the disjunctive search body: a hit must match the
// free text in at least one of the decision-text complements, the subject
// names, or the movement names. Results come newest-filing-first.
func buildQuery(queryText string, limit int) map[string]any {
	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{"movimentos.complementosTabelados.descricao": queryText}},
					map[string]any{"match": map[string]any{"assuntos.nome": queryText}},
					map[string]any{"match": map[string]any{"movimentos.nome": queryText}},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []any{
			map[string]any{"dataAjuizamento": map[string]any{"order": "desc"}},
		},
	}
}

// Search queries the public API and maps every hit to the canonical record.
// The caller is responsible for treating an error as an empty result; this
// client only reports it.
func (c *Client) Search(ctx context.Context, queryText string, limit int) ([]repository.DecisionRecord, error) {
	bodyBytes, err := json.Marshal(buildQuery(queryText, limit))
	if err != nil {
		return nil, fmt.Errorf("marshal datajud query: %w", err)
	}

	url := fmt.Sprintf("%s/api_publica_%s/_search", c.baseURL, c.tribunal)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create datajud request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "APIKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("datajud request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("datajud returned %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode datajud response: %w", err)
	}

	records := make([]repository.DecisionRecord, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		raw := hit.Source
		if strings.TrimSpace(raw.ID) == "" {
			raw.ID = hit.ID
		}
		rec := MapRecord(raw)
		if rec.ExternalID == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
