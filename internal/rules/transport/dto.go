package transport

import (
	"time"

	"maintenance_backend/internal/rules/domain"

	"github.com/google/uuid"
)

// TargetDTO is a rule's asset selector.
type TargetDTO struct {
	Type string      `json:"type" validate:"required,oneof=asset kit model tag"`
	IDs  []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
}

// IntervalDTO is a rule's recurrence.
type IntervalDTO struct {
	Type  string `json:"type" validate:"required,oneof=days months uses"`
	Value int    `json:"value" validate:"required,gt=0"`
}

// CreateRuleRequest is the request body for POST /rules.
type CreateRuleRequest struct {
	Name              string      `json:"name" validate:"required,min=1,max=200"`
	WorkType          string      `json:"workType" validate:"required,oneof=inspection preventive calibration cleaning lubrication safety-check custom"`
	CustomWorkType    string      `json:"customWorkType" validate:"max=100"`
	IsInternal        bool        `json:"isInternal"`
	ServiceProviderID *uuid.UUID  `json:"serviceProviderId,omitempty"`
	Target            TargetDTO   `json:"target" validate:"required"`
	Interval          IntervalDTO `json:"interval" validate:"required"`
	StartDate         time.Time   `json:"startDate" validate:"required"`
	LeadTimeDays      int         `json:"leadTimeDays" validate:"min=0,max=365"`
	RescheduleMode    string      `json:"rescheduleMode" validate:"omitempty,oneof=actual-completion replan-once"`
}

// UpdateRuleRequest is the request body for PUT /rules/:id. Absent fields are unchanged.
type UpdateRuleRequest struct {
	Name              *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	WorkType          *string      `json:"workType,omitempty" validate:"omitempty,oneof=inspection preventive calibration cleaning lubrication safety-check custom"`
	CustomWorkType    *string      `json:"customWorkType,omitempty" validate:"omitempty,max=100"`
	IsInternal        *bool        `json:"isInternal,omitempty"`
	ServiceProviderID *uuid.UUID   `json:"serviceProviderId,omitempty"`
	Target            *TargetDTO   `json:"target,omitempty"`
	Interval          *IntervalDTO `json:"interval,omitempty"`
	StartDate         *time.Time   `json:"startDate,omitempty"`
	LeadTimeDays      *int         `json:"leadTimeDays,omitempty" validate:"omitempty,min=0,max=365"`
	RescheduleMode    *string      `json:"rescheduleMode,omitempty" validate:"omitempty,oneof=actual-completion replan-once"`
}

// ListRulesRequest is the query for GET /rules.
type ListRulesRequest struct {
	Search     string `form:"search" validate:"max=100"`
	WorkType   string `form:"workType" validate:"omitempty,oneof=inspection preventive calibration cleaning lubrication safety-check custom"`
	IsInternal *bool  `form:"isInternal"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// RuleResponse is the API representation of a rule.
type RuleResponse struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	WorkType          string      `json:"workType"`
	CustomWorkType    string      `json:"customWorkType,omitempty"`
	IsInternal        bool        `json:"isInternal"`
	ServiceProviderID *uuid.UUID  `json:"serviceProviderId,omitempty"`
	Target            TargetDTO   `json:"target"`
	Interval          IntervalDTO `json:"interval"`
	StartDate         string      `json:"startDate"`
	NextDueDate       string      `json:"nextDueDate"`
	LeadTimeDays      int         `json:"leadTimeDays"`
	RescheduleMode    string      `json:"rescheduleMode"`
	CreatedBy         uuid.UUID   `json:"createdBy"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedBy         uuid.UUID   `json:"updatedBy"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// RuleListResponse is one page of rules.
type RuleListResponse struct {
	Items      []RuleResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// MaterializeResponse reports an on-demand regeneration.
type MaterializeResponse struct {
	Deleted int `json:"deleted"`
	Created int `json:"created"`
}

// ToTarget maps the selector DTO to the domain type.
func (t TargetDTO) ToTarget() domain.Target {
	return domain.Target{Type: domain.TargetType(t.Type), IDs: t.IDs}
}

// ToInterval maps the interval DTO to the domain type.
func (i IntervalDTO) ToInterval() domain.Interval {
	return domain.Interval{Type: domain.IntervalType(i.Type), Value: i.Value}
}

// ToResponse maps a domain rule to its API representation.
func ToResponse(r domain.Rule) RuleResponse {
	ids := r.Target.IDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return RuleResponse{
		ID:                r.ID,
		Name:              r.Name,
		WorkType:          string(r.WorkType),
		CustomWorkType:    r.CustomWorkType,
		IsInternal:        r.IsInternal,
		ServiceProviderID: r.ServiceProviderID,
		Target:            TargetDTO{Type: string(r.Target.Type), IDs: ids},
		Interval:          IntervalDTO{Type: string(r.Interval.Type), Value: r.Interval.Value},
		StartDate:         r.StartDate.Format(time.DateOnly),
		NextDueDate:       r.NextDueDate.Format(time.DateOnly),
		LeadTimeDays:      r.LeadTimeDays,
		RescheduleMode:    string(r.RescheduleMode),
		CreatedBy:         r.CreatedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedBy:         r.UpdatedBy,
		UpdatedAt:         r.UpdatedAt,
	}
}
