package handler

import (
	"net/http"

	"maintenance_backend/internal/holds/domain"
	"maintenance_backend/internal/holds/service"
	"maintenance_backend/internal/holds/transport"
	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves calendar holds read-only.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new holds handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the hold routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

// List handles GET /holds
func (h *Handler) List(c *gin.Context) {
	var req transport.ListHoldsRequest
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

	holds, err := h.svc.List(c.Request.Context(), tenantID, req.PlanID, domain.Status(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.HoldListResponse{Items: transport.ToResponses(holds)})
}
