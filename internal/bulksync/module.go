// Package bulksync provides the incremental bulk import bounded context
// module.
package bulksync

import (
	"jurisprudencia_backend/internal/bulksync/catalog"
	"jurisprudencia_backend/internal/bulksync/handler"
	"jurisprudencia_backend/internal/bulksync/repository"
	"jurisprudencia_backend/internal/bulksync/service"
	apphttp "jurisprudencia_backend/internal/http"
	"jurisprudencia_backend/internal/scheduler"
	"jurisprudencia_backend/platform/config"
	"jurisprudencia_backend/platform/logger"
	"jurisprudencia_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces this module consumes.
type ModuleConfig interface {
	config.CatalogConfig
	config.SyncConfig
}

// Module is the bulk sync bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the bulk sync module. The record store
// is the jurisprudence repository so both bounded contexts share one local
// corpus; the enqueuer hands async runs to the worker and may be nil.
func NewModule(pool *pgxpool.Pool, records service.RecordStore, enqueuer scheduler.SyncEnqueuer, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	syncLog := repository.New(pool)

	cat := catalog.NewClient(catalog.Config{
		BaseURL: cfg.GetCatalogBaseURL(),
		Timeout: cfg.GetCatalogTimeout(),
	})

	svc := service.NewService(cat, service.NewHTTPDownloader(), syncLog, records, service.NewSleeper(), service.Config{
		Units:           cfg.GetSyncUnits(),
		MaxFiles:        cfg.GetSyncMaxFiles(),
		UnitDelay:       cfg.GetSyncUnitDelay(),
		FileDelay:       cfg.GetSyncFileDelay(),
		DownloadTimeout: cfg.GetSyncDownloadTimeout(),
	}, log)

	h := handler.New(svc, val, enqueuer)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bulksync"
}

// Service returns the service layer for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts bulk sync routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/jurisprudencia/sync", m.handler.Run)
	ctx.V1.GET("/jurisprudencia/sync/status", m.handler.Status)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
