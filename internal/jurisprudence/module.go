// Package jurisprudence provides the hybrid search bounded context module.
package jurisprudence

import (
	apphttp "jurisprudencia_backend/internal/http"
	"jurisprudencia_backend/internal/jurisprudence/datajud"
	"jurisprudencia_backend/internal/jurisprudence/handler"
	"jurisprudencia_backend/internal/jurisprudence/repository"
	"jurisprudencia_backend/internal/jurisprudence/service"
	"jurisprudencia_backend/platform/config"
	"jurisprudencia_backend/platform/logger"
	"jurisprudencia_backend/platform/throttle"
	"jurisprudencia_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces this module consumes.
type ModuleConfig interface {
	config.DataJudConfig
	config.SearchConfig
}

// Module is the jurisprudence bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the jurisprudence module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var remote service.RemoteSearcher
	if cfg.IsDataJudEnabled() {
		remote = datajud.NewClient(datajud.Config{
			BaseURL:  cfg.GetDataJudBaseURL(),
			APIKey:   cfg.GetDataJudAPIKey(),
			Tribunal: cfg.GetDataJudTribunal(),
			Timeout:  cfg.GetDataJudTimeout(),
		})
	} else {
		log.Warn("DATAJUD_API_KEY not configured; federation disabled, searches are local-only")
	}

	governor := throttle.New(cfg.GetFederationMinInterval(), cfg.GetFederationMaxConcurrent())
	svc := service.New(repo, remote, governor, log, cfg.GetSearchMinLocalResults())
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jurisprudence"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts jurisprudence routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/jurisprudencia/busca", m.handler.Search)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
