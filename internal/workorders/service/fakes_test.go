package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"maintenance_backend/internal/users"
	"maintenance_backend/internal/workorders/domain"
	"maintenance_backend/internal/workorders/repository"
	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
)

type memRepo struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]domain.WorkOrder
	seq         map[string]int
	failUpdate  map[uuid.UUID]error
	conflictsOn map[string]bool
	updates     int
	// beforeUpdate runs once ahead of the next Update, standing in for a
	// concurrent writer.
	beforeUpdate func()
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:      map[uuid.UUID]domain.WorkOrder{},
		seq:         map[string]int{},
		failUpdate:  map[uuid.UUID]error{},
		conflictsOn: map[string]bool{},
	}
}

func (r *memRepo) NextNumber(_ context.Context, day time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := day.UTC().Format("2006-01-02")
	r.seq[key]++
	return domain.FormatNumber(day, r.seq[key])
}

func (r *memRepo) Create(_ context.Context, w *domain.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsOn[w.WorkOrderNumber] {
		return apperr.Conflict("work order number already exists")
	}
	for _, existing := range r.orders {
		if existing.WorkOrderNumber == w.WorkOrderNumber {
			return apperr.Conflict("work order number already exists")
		}
	}
	r.orders[w.ID] = w.Clone()
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (*domain.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.orders[id]
	if !ok || w.OrganizationID != organizationID {
		return nil, apperr.NotFound("work order not found")
	}
	out := w.Clone()
	return &out, nil
}

func (r *memRepo) Update(_ context.Context, w *domain.WorkOrder, expected domain.State) error {
	if hook := r.beforeUpdate; hook != nil {
		r.beforeUpdate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failUpdate[w.ID]; err != nil {
		return err
	}
	stored, ok := r.orders[w.ID]
	if !ok {
		return apperr.NotFound("work order not found")
	}
	if stored.State != expected {
		return apperr.Conflict(fmt.Sprintf("work order is no longer %s", expected))
	}
	r.updates++
	r.orders[w.ID] = w.Clone()
	return nil
}

func (r *memRepo) DeleteScheduledByRule(_ context.Context, organizationID uuid.UUID, ruleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, w := range r.orders {
		if w.OrganizationID == organizationID && w.RuleID != nil && *w.RuleID == ruleID && w.State == domain.StateScheduled {
			delete(r.orders, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ListScheduled(context.Context) ([]domain.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.WorkOrder{}
	for _, w := range r.orders {
		if w.State == domain.StateScheduled {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkOrderNumber < out[j].WorkOrderNumber })
	return out, nil
}

func (r *memRepo) List(_ context.Context, params repository.ListParams) (repository.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.WorkOrder{}
	for _, w := range r.orders {
		if w.OrganizationID == params.OrganizationID {
			out = append(out, w.Clone())
		}
	}
	return repository.ListResult{Items: out, Total: len(out)}, nil
}

func (r *memRepo) put(w domain.WorkOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[w.ID] = w.Clone()
}

func (r *memRepo) get(id uuid.UUID) domain.WorkOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Clone()
}

type staticUsers struct{ actor users.Actor }

func (s staticUsers) CurrentUser(context.Context) (users.Actor, error) { return s.actor, nil }

type recordingRescheduler struct {
	calls []rescheduleCall
	err   error
}

type rescheduleCall struct {
	ruleID    uuid.UUID
	orderID   uuid.UUID
	actualEnd time.Time
}

func (r *recordingRescheduler) RescheduleAfterCompletion(_ context.Context, _ uuid.UUID, ruleID, workOrderID uuid.UUID, actualEnd time.Time) error {
	r.calls = append(r.calls, rescheduleCall{ruleID: ruleID, orderID: workOrderID, actualEnd: actualEnd})
	return r.err
}

func errUpdate(id uuid.UUID) error { return fmt.Errorf("update %s refused", id) }
