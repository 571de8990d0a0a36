// Package events defines the domain events exchanged by the maintenance
// modules. The bus itself lives in platform/events.
package events

import (
	"time"

	"maintenance_backend/platform/events"
	"maintenance_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Work Order Domain Events
// =============================================================================

// WorkOrderTransitioned is published after a lifecycle event was accepted and persisted.
type WorkOrderTransitioned struct {
	BaseEvent
	OrganizationID  uuid.UUID `json:"organizationId"`
	WorkOrderID     uuid.UUID `json:"workOrderId"`
	WorkOrderNumber string    `json:"workOrderNumber"`
	Event           string    `json:"event"`
	FromState       string    `json:"fromState"`
	ToState         string    `json:"toState"`
	ChangedBy       uuid.UUID `json:"changedBy"`
}

func (e WorkOrderTransitioned) EventName() string { return "workorders.transitioned" }

// WorkOrderActivated is published when the lead-time sweep moves a scheduled
// order into the backlog.
type WorkOrderActivated struct {
	BaseEvent
	OrganizationID  uuid.UUID `json:"organizationId"`
	WorkOrderID     uuid.UUID `json:"workOrderId"`
	WorkOrderNumber string    `json:"workOrderNumber"`
	ActivationDate  time.Time `json:"activationDate"`
}

func (e WorkOrderActivated) EventName() string { return "workorders.activated" }

// =============================================================================
// Rule Domain Events
// =============================================================================

// RuleRescheduled is published when a completion moved a rule's next due date.
type RuleRescheduled struct {
	BaseEvent
	OrganizationID  uuid.UUID `json:"organizationId"`
	RuleID          uuid.UUID `json:"ruleId"`
	WorkOrderID     uuid.UUID `json:"workOrderId"`
	PreviousDueDate time.Time `json:"previousDueDate"`
	NextDueDate     time.Time `json:"nextDueDate"`
}

func (e RuleRescheduled) EventName() string { return "rules.rescheduled" }

// RuleMaterialized is published after a rule's scheduled orders were regenerated.
type RuleMaterialized struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	RuleID         uuid.UUID `json:"ruleId"`
	Deleted        int       `json:"deleted"`
	Created        int       `json:"created"`
}

func (e RuleMaterialized) EventName() string { return "rules.materialized" }

// =============================================================================
// Audit Events
// =============================================================================

// FieldChange describes one changed attribute of an entity.
type FieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// EntityChanged is the fire-and-forget audit record consumed by the history module.
type EntityChanged struct {
	BaseEvent
	OrganizationID uuid.UUID     `json:"organizationId"`
	EntityType     string        `json:"entityType"`
	EntityID       string        `json:"entityId"`
	Action         string        `json:"action"`
	ChangedBy      uuid.UUID     `json:"changedBy"`
	ChangedByName  string        `json:"changedByName"`
	Changes        []FieldChange `json:"changes"`
}

func (e EntityChanged) EventName() string { return "audit.entity_changed" }
