// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// DataJudConfig provides settings for the DataJud public search API.
type DataJudConfig interface {
	GetDataJudBaseURL() string
	GetDataJudAPIKey() string
	GetDataJudTribunal() string
	GetDataJudTimeout() time.Duration
	IsDataJudEnabled() bool
}

// CatalogConfig provides settings for the open-data file catalog.
type CatalogConfig interface {
	GetCatalogBaseURL() string
	GetCatalogTimeout() time.Duration
}

// SearchConfig provides tuning knobs for the hybrid search coordinator.
type SearchConfig interface {
	GetSearchMinLocalResults() int
	GetFederationMinInterval() time.Duration
	GetFederationMaxConcurrent() int
}

// SyncConfig provides settings for the bulk sync manager.
type SyncConfig interface {
	GetSyncUnits() []string
	GetSyncMaxFiles() int
	GetSyncUnitDelay() time.Duration
	GetSyncFileDelay() time.Duration
	GetSyncDownloadTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq worker and scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSyncCron() string
}

// defaultSyncUnits is the fixed set of organizational units whose historical
// corpus is partitioned into per-period bulk files on the open-data catalog.
var defaultSyncUnits = []string{
	"primeira-camara",
	"segunda-camara",
	"terceira-camara",
	"quarta-camara",
	"quinta-camara",
	"sexta-camara",
}

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	DataJudBaseURL  string
	DataJudAPIKey   string
	DataJudTribunal string
	DataJudTimeout  time.Duration

	CatalogBaseURL string
	CatalogTimeout time.Duration

	SearchMinLocalResults   int
	FederationMinInterval   time.Duration
	FederationMaxConcurrent int

	SyncUnits           []string
	SyncMaxFiles        int
	SyncUnitDelay       time.Duration
	SyncFileDelay       time.Duration
	SyncDownloadTimeout time.Duration

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	SyncCron         string
}

// Load reads configuration from the environment, with .env support for
// local development. Missing optional values fall back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	syncUnits := splitCSV(getEnv("SYNC_UNITS", ""))
	if len(syncUnits) == 0 {
		syncUnits = defaultSyncUnits
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		DataJudBaseURL:  getEnv("DATAJUD_BASE_URL", "https://api-publica.datajud.cnj.jus.br"),
		DataJudAPIKey:   getEnv("DATAJUD_API_KEY", ""),
		DataJudTribunal: getEnv("DATAJUD_TRIBUNAL", "trf1"),
		DataJudTimeout:  mustDuration(getEnv("DATAJUD_TIMEOUT", "15s")),

		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "https://dadosabertos.web.stj.jus.br"),
		CatalogTimeout: mustDuration(getEnv("CATALOG_TIMEOUT", "20s")),

		SearchMinLocalResults:   mustInt(getEnv("SEARCH_MIN_LOCAL_RESULTS", "5")),
		FederationMinInterval:   mustDuration(getEnv("FEDERATION_MIN_INTERVAL", "3s")),
		FederationMaxConcurrent: mustInt(getEnv("FEDERATION_MAX_CONCURRENT", "5")),

		SyncUnits:           syncUnits,
		SyncMaxFiles:        mustInt(getEnv("SYNC_MAX_FILES", "3")),
		SyncUnitDelay:       mustDuration(getEnv("SYNC_UNIT_DELAY", "1s")),
		SyncFileDelay:       mustDuration(getEnv("SYNC_FILE_DELAY", "2s")),
		SyncDownloadTimeout: mustDuration(getEnv("SYNC_DOWNLOAD_TIMEOUT", "120s")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SyncCron:         getEnv("SYNC_CRON", "@every 1h"),
	}

	return cfg, nil
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// DataJudConfig implementation
func (c *Config) GetDataJudBaseURL() string        { return c.DataJudBaseURL }
func (c *Config) GetDataJudAPIKey() string         { return c.DataJudAPIKey }
func (c *Config) GetDataJudTribunal() string       { return c.DataJudTribunal }
func (c *Config) GetDataJudTimeout() time.Duration { return c.DataJudTimeout }
func (c *Config) IsDataJudEnabled() bool           { return c.DataJudAPIKey != "" }

// CatalogConfig implementation
func (c *Config) GetCatalogBaseURL() string        { return c.CatalogBaseURL }
func (c *Config) GetCatalogTimeout() time.Duration { return c.CatalogTimeout }

// SearchConfig implementation
func (c *Config) GetSearchMinLocalResults() int           { return c.SearchMinLocalResults }
func (c *Config) GetFederationMinInterval() time.Duration { return c.FederationMinInterval }
func (c *Config) GetFederationMaxConcurrent() int         { return c.FederationMaxConcurrent }

// SyncConfig implementation
func (c *Config) GetSyncUnits() []string                { return c.SyncUnits }
func (c *Config) GetSyncMaxFiles() int                  { return c.SyncMaxFiles }
func (c *Config) GetSyncUnitDelay() time.Duration       { return c.SyncUnitDelay }
func (c *Config) GetSyncFileDelay() time.Duration       { return c.SyncFileDelay }
func (c *Config) GetSyncDownloadTimeout() time.Duration { return c.SyncDownloadTimeout }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) GetSyncCron() string       { return c.SyncCron }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
