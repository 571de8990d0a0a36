package handler

import (
	"net/http"

	"maintenance_backend/internal/rules/domain"
	"maintenance_backend/internal/rules/repository"
	"maintenance_backend/internal/rules/service"
	"maintenance_backend/internal/rules/transport"
	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for maintenance rules.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new rules handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the rule routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/materialize", h.Materialize)
}

// List handles GET /rules
func (h *Handler) List(c *gin.Context) {
	var req transport.ListRulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); httpkit.HandleError(c, err) {
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), repository.ListParams{
		OrganizationID: tenantID,
		Search:         req.Search,
		WorkType:       req.WorkType,
		IsInternal:     req.IsInternal,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.RuleResponse, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, transport.ToResponse(r))
	}
	httpkit.OK(c, transport.RuleListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Create handles POST /rules
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRuleRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	rule, err := h.svc.Create(c.Request.Context(), tenantID, service.CreateInput{
		Name:              req.Name,
		WorkType:          domain.WorkType(req.WorkType),
		CustomWorkType:    req.CustomWorkType,
		IsInternal:        req.IsInternal,
		ServiceProviderID: req.ServiceProviderID,
		Target:            req.Target.ToTarget(),
		Interval:          req.Interval.ToInterval(),
		StartDate:         req.StartDate,
		LeadTimeDays:      req.LeadTimeDays,
		RescheduleMode:    domain.RescheduleMode(req.RescheduleMode),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToResponse(*rule))
}

// GetByID handles GET /rules/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	rule, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(*rule))
}

// Update handles PUT /rules/:id
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateRuleRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}

	in := service.UpdateInput{
		Name:              req.Name,
		CustomWorkType:    req.CustomWorkType,
		IsInternal:        req.IsInternal,
		ServiceProviderID: req.ServiceProviderID,
		StartDate:         req.StartDate,
		LeadTimeDays:      req.LeadTimeDays,
	}
	if req.WorkType != nil {
		wt := domain.WorkType(*req.WorkType)
		in.WorkType = &wt
	}
	if req.Target != nil {
		target := req.Target.ToTarget()
		in.Target = &target
	}
	if req.Interval != nil {
		interval := req.Interval.ToInterval()
		in.Interval = &interval
	}
	if req.RescheduleMode != nil {
		mode := domain.RescheduleMode(*req.RescheduleMode)
		in.RescheduleMode = &mode
	}

	rule, err := h.svc.Update(c.Request.Context(), tenantID, id, in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(*rule))
}

// Delete handles DELETE /rules/:id
func (h *Handler) Delete(c *gin.Context) {
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), tenantID, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Materialize handles POST /rules/:id/materialize
func (h *Handler) Materialize(c *gin.Context) {
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	result, err := h.svc.Materialize(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MaterializeResponse{Deleted: result.Deleted, Created: result.Created})
}

func (h *Handler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return id, tenantID, true
}
