package service

import (
	"context"
	"testing"
	"time"

	"maintenance_backend/internal/workorders/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduledOrder(number string, start time.Time, lead int) domain.WorkOrder {
	ruleID := uuid.New()
	return domain.WorkOrder{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		WorkOrderNumber: number,
		Type:            domain.TypeInternal,
		OrderType:       domain.OrderTypePlanned,
		State:           domain.StateScheduled,
		RuleID:          &ruleID,
		LeadTimeDays:    lead,
		ScheduledStart:  &start,
		History:         []domain.HistoryEntry{{State: domain.StateScheduled}},
	}
}

func TestActivationRespectsLeadTime(t *testing.T) {
	start := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		promoted bool
	}{
		{"before activation date", time.Date(2025, time.January, 10, 8, 0, 0, 0, time.UTC), false},
		{"after activation date", time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc, _ := newTestService(repo)
			svc.SetClock(func() time.Time { return tt.now })
			w := scheduledOrder("WO-20250101-0001", start, 7)
			repo.put(w)

			result, err := svc.ActivateDue(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, result.Examined)

			stored := repo.get(w.ID)
			if tt.promoted {
				assert.Equal(t, []uuid.UUID{w.ID}, result.Promoted)
				assert.Equal(t, domain.StateBacklog, stored.State)
				assert.Equal(t, domain.StateBacklog, stored.History[len(stored.History)-1].State)
				assert.Equal(t, w.ScheduledStart, stored.ScheduledStart)
				assert.Equal(t, w.LeadTimeDays, stored.LeadTimeDays)
			} else {
				assert.Empty(t, result.Promoted)
				assert.Equal(t, domain.StateScheduled, stored.State)
			}
		})
	}
}

func TestActivationIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	svc.SetClock(func() time.Time { return time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC) })
	w := scheduledOrder("WO-20250101-0001", time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC), 7)
	repo.put(w)

	first, err := svc.ActivateDue(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Promoted, 1)

	second, err := svc.ActivateDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Examined)
	assert.Empty(t, second.Promoted)
	assert.Len(t, repo.get(w.ID).History, 2)
}

func TestActivationCollectsPerItemFailures(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	svc.SetClock(func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) })

	ok := scheduledOrder("WO-20250101-0001", time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), 0)
	broken := scheduledOrder("WO-20250101-0002", time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC), 0)
	repo.put(ok)
	repo.put(broken)
	repo.failUpdate[broken.ID] = errUpdate(broken.ID)

	result, err := svc.ActivateDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ok.ID}, result.Promoted)
	assert.Equal(t, []uuid.UUID{broken.ID}, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "WO-20250101-0002")
	assert.Equal(t, domain.StateScheduled, repo.get(broken.ID).State)
}

func TestActivationSkipsOrderChangedDuringSweep(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	svc.SetClock(func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) })

	w := scheduledOrder("WO-20250101-0001", time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), 0)
	repo.put(w)
	obsolete := w.Clone()
	obsolete.State = domain.StateObsolete
	repo.beforeUpdate = func() { repo.put(obsolete) }

	result, err := svc.ActivateDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Promoted)
	assert.Equal(t, []uuid.UUID{w.ID}, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no longer scheduled")
	assert.Equal(t, domain.StateObsolete, repo.get(w.ID).State)
}
