// Package catalog provides discovery of bulk data files from the CKAN
// open-data catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Resource is one downloadable bulk file of a dataset.
type Resource struct {
	Name string
	URL  string
}

// Client queries the CKAN package_show action for dataset resources.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config configures the catalog client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new catalog client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type packageShowResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Resources []struct {
			Name   string `json:"name"`
			URL    string `json:"url"`
			Format string `json:"format"`
		} `json:"resources"`
	} `json:"result"`
}

// Bulk files are named <dataset-stem>_<YYYYMMDD>.json, one per period.
// Anything else on the dataset (dictionaries, CSV mirrors, readmes) is noise.
var fileNamePattern = regexp.MustCompile(`^[a-z0-9-]+(?:_[a-z0-9-]+)*_(\d{8})\.json$`)

// ListFiles returns the dataset's bulk files, newest period first. Only
// JSON resources whose name carries a valid 8-digit date stem qualify.
func (c *Client) ListFiles(ctx context.Context, datasetID string) ([]Resource, error) {
	endpoint := fmt.Sprintf("%s/api/3/action/package_show?id=%s", c.baseURL, url.QueryEscape(datasetID))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("catalog returned %d: %s", resp.StatusCode, string(body))
	}

	var result packageShowResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("catalog rejected dataset %q", datasetID)
	}

	files := make([]Resource, 0, len(result.Result.Resources))
	for _, resource := range result.Result.Resources {
		if !strings.EqualFold(resource.Format, "json") {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(resource.Name))
		match := fileNamePattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		if _, err := time.Parse("20060102", match[1]); err != nil {
			continue
		}
		files = append(files, Resource{Name: name, URL: resource.URL})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })

	return files, nil
}
