package handler

import (
	"context"
	"net/http"

	"maintenance_backend/internal/workorders/domain"
	"maintenance_backend/internal/workorders/repository"
	"maintenance_backend/internal/workorders/service"
	"maintenance_backend/internal/workorders/transport"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// SweepEnqueuer hands an activation sweep to the background worker.
type SweepEnqueuer interface {
	EnqueueActivationSweep(ctx context.Context) error
}

// Handler handles HTTP requests for work orders.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer SweepEnqueuer
}

// New creates a new work orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetSweepEnqueuer makes POST /activation-sweep queue the sweep instead of running it inline.
func (h *Handler) SetSweepEnqueuer(enqueuer SweepEnqueuer) {
	h.enqueuer = enqueuer
}

// RegisterRoutes registers the work order routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/activation-sweep", httpkit.RequireRole("admin"), h.ActivationSweep)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", h.Update)
	rg.POST("/:id/events", h.ApplyEvent)
	rg.POST("/:id/offers", h.ReceiveOffer)
	rg.POST("/:id/offers/accept", h.AcceptOffer)
	rg.PATCH("/:id/line-items", h.UpdateLineItems)
}

// List handles GET /work-orders
func (h *Handler) List(c *gin.Context) {
	var req transport.ListWorkOrdersRequest
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

	states := make([]domain.State, 0, len(req.State))
	for _, s := range req.State {
		states = append(states, domain.State(s))
	}
	result, err := h.svc.List(c.Request.Context(), repository.ListParams{
		OrganizationID: tenantID,
		States:         states,
		Type:           req.Type,
		OrderType:      req.OrderType,
		RuleID:         req.RuleID,
		AssignedTo:     req.AssignedTo,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.WorkOrderResponse, 0, len(result.Items))
	for _, w := range result.Items {
		items = append(items, transport.ToResponse(w))
	}
	httpkit.OK(c, transport.WorkOrderListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Create handles POST /work-orders
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateWorkOrderRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	w, err := h.svc.Create(c.Request.Context(), tenantID, service.CreateInput{
		Type:                  domain.Type(req.Type),
		OrderType:             domain.OrderType(req.OrderType),
		Title:                 req.Title,
		AssetIDs:              req.AssetIDs,
		AssignedTo:            req.AssignedTo,
		ApprovalResponsibleID: req.ApprovalResponsibleID,
		ScheduledStart:        req.ScheduledStart,
		ScheduledEnd:          req.ScheduledEnd,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToResponse(*w))
}

// GetByID handles GET /work-orders/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	w, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(*w))
}

// Update handles PATCH /work-orders/:id
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateWorkOrderRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	w, err := h.svc.Update(c.Request.Context(), tenantID, id, service.UpdateInput{
		Title:                 req.Title,
		ApprovalResponsibleID: req.ApprovalResponsibleID,
		ScheduledEnd:          req.ScheduledEnd,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(*w))
}

// ApplyEvent handles POST /work-orders/:id/events
func (h *Handler) ApplyEvent(c *gin.Context) {
	var req transport.ApplyEventRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	event, err := domain.ParseEvent(req.Event)
	if httpkit.HandleError(c, err) {
		return
	}

	w, err := h.svc.ApplyEvent(c.Request.Context(), tenantID, id, domain.Command{
		Event:          event,
		AssignedTo:     req.AssignedTo,
		ScheduledStart: req.ScheduledStart,
		ActualEnd:      req.ActualEnd,
		CompanyID:      req.CompanyID,
	})
	h.respondWorkOrder(c, w, err)
}

// ReceiveOffer handles POST /work-orders/:id/offers
func (h *Handler) ReceiveOffer(c *gin.Context) {
	var req transport.ReceiveOfferRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	offer := domain.Offer{CompanyID: req.CompanyID, Amount: req.Amount, Notes: req.Notes}
	if req.ReceivedAt != nil {
		offer.ReceivedAt = *req.ReceivedAt
	}
	w, err := h.svc.ReceiveOffer(c.Request.Context(), tenantID, id, offer)
	h.respondWorkOrder(c, w, err)
}

// AcceptOffer handles POST /work-orders/:id/offers/accept
func (h *Handler) AcceptOffer(c *gin.Context) {
	var req transport.AcceptOfferRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	w, err := h.svc.AcceptOffer(c.Request.Context(), tenantID, id, req.CompanyID)
	h.respondWorkOrder(c, w, err)
}

// UpdateLineItems handles PATCH /work-orders/:id/line-items
func (h *Handler) UpdateLineItems(c *gin.Context) {
	var req transport.UpdateLineItemsRequest
	if !httpkit.BindJSON(c, &req, h.val) {
		return
	}
	id, tenantID, ok := h.target(c)
	if !ok {
		return
	}
	w, result, err := h.svc.UpdateLineItems(c.Request.Context(), tenantID, id, req.AssetIDs, domain.CompletionStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LineItemsResponse{
		WorkOrder: transport.ToResponse(*w),
		Result: transport.BatchResponse{
			SucceededCount: len(result.Succeeded),
			FailedCount:    len(result.Failed),
			Succeeded:      orEmpty(result.Succeeded),
			Failed:         orEmpty(result.Failed),
			Errors:         orEmpty(result.Errors),
		},
	})
}

// ActivationSweep handles POST /work-orders/activation-sweep
func (h *Handler) ActivationSweep(c *gin.Context) {
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueActivationSweep(c.Request.Context()); err != nil {
			httpkit.HandleError(c, apperr.Dependency("failed to queue activation sweep", err))
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.SweepResponse{Queued: true, Promoted: []uuid.UUID{}, Failed: []uuid.UUID{}, Errors: []string{}})
		return
	}

	result, err := h.svc.ActivateDue(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SweepResponse{
		Examined: result.Examined,
		Promoted: orEmpty(result.Promoted),
		Failed:   orEmpty(result.Failed),
		Errors:   orEmpty(result.Errors),
	})
}

// respondWorkOrder writes the order, or the committed order with a 500 when
// the completion succeeded but the rule reschedule did not.
func (h *Handler) respondWorkOrder(c *gin.Context, w *domain.WorkOrder, err error) {
	if err != nil && apperr.Is(err, apperr.KindRescheduleFailed) && w != nil {
		_ = c.Error(err)
		httpkit.JSON(c, http.StatusInternalServerError, httpkit.ErrorResponse{
			Error:   "work order completed but its rule could not be rescheduled",
			Details: transport.ToResponse(*w),
		})
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResponse(*w))
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

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
