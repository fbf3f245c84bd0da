package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPDownloader fetches bulk files over plain HTTP GET. Timeouts are
// enforced per request through the context handed in by the sync manager.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates the production downloader.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{}}
}

// Fetch issues the download request and hands the body to the caller.
func (d *HTTPDownloader) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, fmt.Errorf("download returned %d: %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}
