package service

import (
	"context"
	"fmt"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/users"
	"maintenance_backend/internal/workorders/domain"

	"github.com/google/uuid"
)

// SweepResult reports one activation sweep.
type SweepResult struct {
	Examined int
	Promoted []uuid.UUID
	Failed   []uuid.UUID
	Errors   []string
}

// ActivateDue promotes every scheduled order whose lead time has been reached
// to the backlog. Orders are handled independently; a failed update is
// reported and the sweep continues. Running it again is a no-op for orders
// already promoted because only scheduled orders are examined.
func (s *Service) ActivateDue(ctx context.Context) (SweepResult, error) {
	scheduled, err := s.repo.ListScheduled(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	now := s.now()
	result := SweepResult{Examined: len(scheduled)}
	for _, w := range scheduled {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		next, due := domain.Activate(w, users.System.ID, now)
		if !due {
			continue
		}
		if err := s.repo.Update(ctx, &next, w.State); err != nil {
			result.Failed = append(result.Failed, w.ID)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", w.WorkOrderNumber, err))
			continue
		}
		result.Promoted = append(result.Promoted, w.ID)

		activation, _ := w.ActivationDate()
		if s.eventBus != nil {
			s.eventBus.Publish(ctx, events.WorkOrderActivated{
				BaseEvent:       events.NewBaseEventAt(now),
				OrganizationID:  w.OrganizationID,
				WorkOrderID:     w.ID,
				WorkOrderNumber: w.WorkOrderNumber,
				ActivationDate:  activation,
			})
		}
		s.recordChange(ctx, users.System, &next, "activated", []events.FieldChange{{Field: "state", From: domain.StateScheduled, To: domain.StateBacklog}})
	}

	s.metrics.Sweep(len(result.Promoted), len(result.Failed))
	s.log.WithContext(ctx).SweepCompleted(result.Examined, len(result.Promoted), len(result.Failed))
	return result, nil
}
