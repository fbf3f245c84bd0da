package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListFilesFiltersAndSorts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/3/action/package_show" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "julgados-primeira-camara" {
			t.Errorf("unexpected dataset id: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"result": {
				"resources": [
					{"name": "julgados-primeira-camara_20240115.json", "url": "https://files.example/a.json", "format": "JSON"},
					{"name": "julgados-primeira-camara_20240301.json", "url": "https://files.example/b.json", "format": "json"},
					{"name": "dicionario-de-dados.pdf", "url": "https://files.example/dict.pdf", "format": "PDF"},
					{"name": "julgados-primeira-camara_20240215.csv", "url": "https://files.example/c.csv", "format": "CSV"},
					{"name": "julgados-primeira-camara_20241399.json", "url": "https://files.example/bad-date.json", "format": "JSON"},
					{"name": "sem-data.json", "url": "https://files.example/no-date.json", "format": "JSON"}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})

	files, err := client.ListFiles(context.Background(), "julgados-primeira-camara")
	if err != nil {
		t.Fatalf("ListFiles returned error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	if files[0].Name != "julgados-primeira-camara_20240301.json" {
		t.Errorf("expected newest file first, got %s", files[0].Name)
	}
	if files[1].Name != "julgados-primeira-camara_20240115.json" {
		t.Errorf("expected older file second, got %s", files[1].Name)
	}
	if files[0].URL != "https://files.example/b.json" {
		t.Errorf("unexpected URL: %s", files[0].URL)
	}
}

func TestListFilesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success": false, "error": {"message": "Not found"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	if _, err := client.ListFiles(context.Background(), "nao-existe"); err == nil {
		t.Fatal("expected error for 404 response, got nil")
	}
}

func TestListFilesSuccessFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	if _, err := client.ListFiles(context.Background(), "julgados-x"); err == nil {
		t.Fatal("expected error when success=false, got nil")
	}
}
