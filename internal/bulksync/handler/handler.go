// Package handler exposes the bulk sync operations over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jurisprudencia_backend/internal/bulksync/service"
	"jurisprudencia_backend/internal/bulksync/transport"
	"jurisprudencia_backend/internal/scheduler"
	"jurisprudencia_backend/platform/apperr"
	"jurisprudencia_backend/platform/httpkit"
	"jurisprudencia_backend/platform/validator"
)

// Handler handles HTTP requests for bulk sync.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer scheduler.SyncEnqueuer
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	msgAsyncUnavailable = "execução assíncrona indisponível: worker não configurado"
)

// New creates a new bulk sync handler. A nil enqueuer disables async runs;
// requests asking for one are rejected instead of silently running inline.
func New(svc *service.Service, val *validator.Validator, enqueuer scheduler.SyncEnqueuer) *Handler {
	return &Handler{svc: svc, val: val, enqueuer: enqueuer}
}

// Run triggers one budgeted sync pass, either inline or on the worker.
// POST /api/v1/jurisprudencia/sync
func (h *Handler) Run(c *gin.Context) {
	var req transport.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if req.Async {
		if h.enqueuer == nil {
			httpkit.HandleError(c, apperr.Unavailable(msgAsyncUnavailable))
			return
		}
		err := h.enqueuer.EnqueueBulkSyncRun(c.Request.Context(), scheduler.BulkSyncRunPayload{
			Unit:     req.Unit,
			MaxFiles: req.MaxFiles,
			Force:    req.Force,
		})
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.Accepted(c, transport.SyncAcceptedResponse{
			Enqueued: true,
			Unit:     req.Unit,
			MaxFiles: req.MaxFiles,
			Force:    req.Force,
		})
		return
	}

	result, err := h.svc.Run(c.Request.Context(), service.RunParams{
		Unit:     req.Unit,
		MaxFiles: req.MaxFiles,
		Force:    req.Force,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Status reports the discovered/imported/pending breakdown.
// GET /api/v1/jurisprudencia/sync/status
func (h *Handler) Status(c *gin.Context) {
	snapshot, err := h.svc.Status(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, snapshot)
}
