package transport

import (
	"time"

	"maintenance_backend/internal/workorders/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWorkOrderRequest is the request body for an ad-hoc work order.
type CreateWorkOrderRequest struct {
	Type                  string      `json:"type" validate:"required,oneof=internal external"`
	OrderType             string      `json:"orderType" validate:"omitempty,oneof=unplanned follow-up"`
	Title                 string      `json:"title" validate:"max=200"`
	AssetIDs              []uuid.UUID `json:"assetIds" validate:"required,min=1,dive,required"`
	AssignedTo            *uuid.UUID  `json:"assignedTo,omitempty"`
	ApprovalResponsibleID *uuid.UUID  `json:"approvalResponsibleId,omitempty"`
	ScheduledStart        *time.Time  `json:"scheduledStart,omitempty"`
	ScheduledEnd          *time.Time  `json:"scheduledEnd,omitempty"`
}

// UpdateWorkOrderRequest edits descriptive fields.
type UpdateWorkOrderRequest struct {
	Title                 *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	ApprovalResponsibleID *uuid.UUID `json:"approvalResponsibleId,omitempty"`
	ScheduledEnd          *time.Time `json:"scheduledEnd,omitempty"`
}

// ApplyEventRequest is the request body for POST /work-orders/:id/events.
type ApplyEventRequest struct {
	Event          string     `json:"event" validate:"required,oneof=ASSIGN PLAN START COMPLETE APPROVE REOPEN ABORT MARK_OBSOLETE REQUEST_OFFER REQUEST_MORE_OFFERS"`
	AssignedTo     *uuid.UUID `json:"assignedTo,omitempty"`
	ScheduledStart *time.Time `json:"scheduledStart,omitempty"`
	ActualEnd      *time.Time `json:"actualEnd,omitempty"`
	CompanyID      *uuid.UUID `json:"companyId,omitempty"`
}

// ReceiveOfferRequest records a contractor offer.
type ReceiveOfferRequest struct {
	CompanyID  uuid.UUID       `json:"companyId" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt *time.Time      `json:"receivedAt,omitempty"`
	Notes      string          `json:"notes,omitempty" validate:"max=2000"`
}

// AcceptOfferRequest selects the contractor.
type AcceptOfferRequest struct {
	CompanyID uuid.UUID `json:"companyId" validate:"required"`
}

// UpdateLineItemsRequest applies one status to several line items.
type UpdateLineItemsRequest struct {
	AssetIDs []uuid.UUID `json:"assetIds" validate:"required,min=1,dive,required"`
	Status   string      `json:"status" validate:"required,oneof=pending in-progress completed"`
}

// ListWorkOrdersRequest is the query for GET /work-orders.
type ListWorkOrdersRequest struct {
	State      []string   `form:"state" validate:"omitempty,dive,oneof=scheduled backlog assigned offer-requested offer-received planned in-progress completed done aborted obsolete"`
	Type       string     `form:"type" validate:"omitempty,oneof=internal external"`
	OrderType  string     `form:"orderType" validate:"omitempty,oneof=planned unplanned follow-up"`
	RuleID     *uuid.UUID `form:"ruleId"`
	AssignedTo *uuid.UUID `form:"assignedTo"`
	Page       int        `form:"page" validate:"omitempty,min=1"`
	PageSize   int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// WorkOrderResponse is the API representation of a work order.
type WorkOrderResponse struct {
	ID                    uuid.UUID             `json:"id"`
	WorkOrderNumber       string                `json:"workOrderNumber"`
	Type                  string                `json:"type"`
	OrderType             string                `json:"orderType"`
	State                 string                `json:"state"`
	AllowedEvents         []string              `json:"allowedEvents"`
	RuleID                *uuid.UUID            `json:"ruleId,omitempty"`
	Title                 string                `json:"title,omitempty"`
	CompanyID             *uuid.UUID            `json:"companyId,omitempty"`
	RequestedCompanyIDs   []uuid.UUID           `json:"requestedCompanyIds"`
	AssignedTo            *uuid.UUID            `json:"assignedTo,omitempty"`
	ApprovalResponsibleID *uuid.UUID            `json:"approvalResponsibleId,omitempty"`
	LeadTimeDays          int                   `json:"leadTimeDays"`
	ScheduledStart        *time.Time            `json:"scheduledStart,omitempty"`
	ScheduledEnd          *time.Time            `json:"scheduledEnd,omitempty"`
	ActualStart           *time.Time            `json:"actualStart,omitempty"`
	ActualEnd             *time.Time            `json:"actualEnd,omitempty"`
	Offers                []domain.Offer        `json:"offers"`
	LineItems             []domain.LineItem     `json:"lineItems"`
	History               []domain.HistoryEntry `json:"history"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

// WorkOrderListResponse is one page of work orders.
type WorkOrderListResponse struct {
	Items      []WorkOrderResponse `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalPages int                 `json:"totalPages"`
}

// BatchResponse reports a per-item batch operation.
type BatchResponse struct {
	SucceededCount int         `json:"succeededCount"`
	FailedCount    int         `json:"failedCount"`
	Succeeded      []uuid.UUID `json:"succeeded"`
	Failed         []uuid.UUID `json:"failed"`
	Errors         []string    `json:"errors"`
}

// LineItemsResponse combines the updated order with the batch outcome.
type LineItemsResponse struct {
	WorkOrder WorkOrderResponse `json:"workOrder"`
	Result    BatchResponse     `json:"result"`
}

// SweepResponse reports an on-demand activation sweep.
type SweepResponse struct {
	Examined int         `json:"examined"`
	Promoted []uuid.UUID `json:"promoted"`
	Failed   []uuid.UUID `json:"failed"`
	Errors   []string    `json:"errors"`
	Queued   bool        `json:"queued"`
}

// ToResponse maps a domain work order to its API representation.
func ToResponse(w domain.WorkOrder) WorkOrderResponse {
	allowed := []string{}
	if lc, err := domain.LifecycleFor(w.Type); err == nil {
		for _, e := range lc.Events(w.State) {
			allowed = append(allowed, string(e))
		}
	}
	return WorkOrderResponse{
		ID:                    w.ID,
		WorkOrderNumber:       w.WorkOrderNumber,
		Type:                  string(w.Type),
		OrderType:             string(w.OrderType),
		State:                 string(w.State),
		AllowedEvents:         allowed,
		RuleID:                w.RuleID,
		Title:                 w.Title,
		CompanyID:             w.CompanyID,
		RequestedCompanyIDs:   orEmpty(w.RequestedCompanyIDs),
		AssignedTo:            w.AssignedTo,
		ApprovalResponsibleID: w.ApprovalResponsibleID,
		LeadTimeDays:          w.LeadTimeDays,
		ScheduledStart:        w.ScheduledStart,
		ScheduledEnd:          w.ScheduledEnd,
		ActualStart:           w.ActualStart,
		ActualEnd:             w.ActualEnd,
		Offers:                orEmpty(w.Offers),
		LineItems:             orEmpty(w.LineItems),
		History:               orEmpty(w.History),
		CreatedAt:             w.CreatedAt,
		UpdatedAt:             w.UpdatedAt,
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
