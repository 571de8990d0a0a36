package handler

import (
	"net/http"

	holds "maintenance_backend/internal/holds/service"
	"maintenance_backend/internal/plans/domain"
	"maintenance_backend/internal/plans/service"
	"maintenance_backend/internal/plans/transport"
	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the caller's maintenance plan.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new plans handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the plan routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/current", h.Current)
	rg.DELETE("/current", h.Reset)
	rg.POST("/current/actions", h.Apply)
	rg.POST("/current/assets/status", h.AssetStatus)
	rg.POST("/current/sync", h.Sync)
}

// Current handles GET /plans/current
func (h *Handler) Current(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}
	plan, err := h.svc.Current(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(plan))
}

// Apply handles POST /plans/current/actions
func (h *Handler) Apply(c *gin.Context) {
	var req transport.PlanActionRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		plan   domain.Plan
		synced *holds.Result
		err    error
	)
	switch req.Type {
	case transport.ActionSetDetails:
		plan, synced, err = h.svc.SetDetails(ctx, tenantID, req.Name, req.Description, req.Notes)
	case transport.ActionSetSchedule:
		plan, synced, err = h.svc.SetSchedule(ctx, tenantID, req.Schedule())
	case transport.ActionAddAssets:
		plan, synced, err = h.svc.AddAssets(ctx, tenantID, req.AssetIDs)
	case transport.ActionRemoveAsset:
		plan, synced, err = h.svc.RemoveAsset(ctx, tenantID, *req.AssetID)
	case transport.ActionAdvanceStage:
		plan, synced, err = h.svc.AdvanceStage(ctx, tenantID, domain.Stage(req.Stage))
	default:
		httpkit.Error(c, http.StatusBadRequest, "unknown action type", req.Type)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToChangeResponse(plan, synced))
}

// AssetStatus handles POST /plans/current/assets/status
func (h *Handler) AssetStatus(c *gin.Context) {
	var req transport.AssetStatusRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	plan, result, err := h.svc.ApplyAssetStatus(c.Request.Context(), tenantID, req.AssetIDs, domain.AssetStatus(req.Status), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AssetStatusResponse{
		Plan:      transport.ToChangeResponse(plan, result.Holds),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Errors:    result.Errors,
	})
}

// Sync handles POST /plans/current/sync
func (h *Handler) Sync(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}
	plan, result, err := h.svc.Sync(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSyncResponse(plan, result))
}

// Reset handles DELETE /plans/current
func (h *Handler) Reset(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}
	plan, err := h.svc.Reset(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(plan))
}
