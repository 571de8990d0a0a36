package adapters

import (
	"context"

	rulesservice "maintenance_backend/internal/rules/service"
	wodomain "maintenance_backend/internal/workorders/domain"
	woservice "maintenance_backend/internal/workorders/service"

	"github.com/google/uuid"
)

// RuleWorkOrderScheduler lets the rules module manage its scheduled work
// orders without depending on the work order module.
type RuleWorkOrderScheduler struct {
	svc *woservice.Service
}

func NewRuleWorkOrderScheduler(svc *woservice.Service) *RuleWorkOrderScheduler {
	return &RuleWorkOrderScheduler{svc: svc}
}

// DeleteScheduled removes the rule's orders that are still scheduled.
func (a *RuleWorkOrderScheduler) DeleteScheduled(ctx context.Context, organizationID uuid.UUID, ruleID uuid.UUID) (int, error) {
	return a.svc.DeleteScheduledByRule(ctx, organizationID, ruleID)
}

// CreateScheduled stores one scheduled order per due date. Generated orders
// mirror the rule's internal flag in their type.
func (a *RuleWorkOrderScheduler) CreateScheduled(ctx context.Context, batch rulesservice.ScheduleBatch) (int, error) {
	typ := wodomain.TypeExternal
	if batch.IsInternal {
		typ = wodomain.TypeInternal
	}

	orders := make([]wodomain.WorkOrder, 0, len(batch.DueDates))
	for _, due := range batch.DueDates {
		orders = append(orders, woservice.NewScheduledOrder(
			batch.OrganizationID, batch.RuleID, typ, batch.Title, due, batch.LeadTimeDays, batch.AssetIDs,
		))
	}
	created, err := a.svc.CreateScheduled(ctx, orders)
	return len(created), err
}

// Compile-time check.
var _ rulesservice.WorkOrderScheduler = (*RuleWorkOrderScheduler)(nil)
