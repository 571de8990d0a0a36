package handler

import (
	"net/http"

	"maintenance_backend/internal/history/service"
	"maintenance_backend/internal/history/transport"
	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for entity history.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new history handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the history routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:entityType/:entityId", h.List)
}

// List handles GET /history/:entityType/:entityId
func (h *Handler) List(c *gin.Context) {
	var req transport.ListHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); httpkit.HandleError(c, err) {
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	entries, err := h.svc.List(c.Request.Context(), tenantID, c.Param("entityType"), c.Param("entityId"), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(entries))
}
