package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jurisprudencia_backend/internal/jurisprudence/service"
	"jurisprudencia_backend/internal/jurisprudence/transport"
	"jurisprudencia_backend/platform/httpkit"
	"jurisprudencia_backend/platform/validator"
)

// Handler handles HTTP requests for jurisprudence search.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new jurisprudence handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Search runs the hybrid local/remote search.
// GET /api/v1/jurisprudencia/busca
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	// The caller identity for federation throttling is the client IP; a
	// reverse proxy must forward it for per-user fairness to hold.
	result, err := h.svc.Search(c.Request.Context(), c.ClientIP(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
