package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"maintenance_backend/internal/rules/domain"
	"maintenance_backend/internal/rules/repository"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
)

type memRepo struct {
	mu      sync.Mutex
	rules   map[uuid.UUID]domain.Rule
	updates int
	failAll error
}

func newMemRepo() *memRepo {
	return &memRepo{rules: map[uuid.UUID]domain.Rule{}}
}

func (r *memRepo) Create(_ context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID] = *rule
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID, organizationID uuid.UUID) (*domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || rule.OrganizationID != organizationID {
		return nil, apperr.NotFound("maintenance rule not found")
	}
	return &rule, nil
}

func (r *memRepo) Update(_ context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	if _, ok := r.rules[rule.ID]; !ok {
		return apperr.NotFound("maintenance rule not found")
	}
	r.updates++
	r.rules[rule.ID] = *rule
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID, _ uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return apperr.NotFound("maintenance rule not found")
	}
	delete(r.rules, id)
	return nil
}

func (r *memRepo) List(_ context.Context, params repository.ListParams) (repository.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []domain.Rule{}
	for _, rule := range r.rules {
		if rule.OrganizationID == params.OrganizationID {
			items = append(items, rule)
		}
	}
	return repository.ListResult{Items: items, Total: len(items)}, nil
}

type staticAssets struct {
	ids []uuid.UUID
	err error
}

func (s staticAssets) ResolveTargets(context.Context, uuid.UUID, domain.Target) ([]uuid.UUID, error) {
	return s.ids, s.err
}

type storedOrder struct {
	ruleID     uuid.UUID
	due        time.Time
	state      string
	isInternal bool
	assets     int
}

// orderBook stands in for the work order module. The log records the order
// of delete and create calls.
type orderBook struct {
	orders    []storedOrder
	log       []string
	createErr error
}

func (b *orderBook) DeleteScheduled(_ context.Context, _ uuid.UUID, ruleID uuid.UUID) (int, error) {
	b.log = append(b.log, "delete")
	kept := b.orders[:0]
	deleted := 0
	for _, o := range b.orders {
		if o.ruleID == ruleID && o.state == "scheduled" {
			deleted++
			continue
		}
		kept = append(kept, o)
	}
	b.orders = kept
	return deleted, nil
}

func (b *orderBook) CreateScheduled(_ context.Context, batch ScheduleBatch) (int, error) {
	b.log = append(b.log, "create")
	if b.createErr != nil {
		return 0, b.createErr
	}
	for _, due := range batch.DueDates {
		b.orders = append(b.orders, storedOrder{
			ruleID:     batch.RuleID,
			due:        due,
			state:      "scheduled",
			isInternal: batch.IsInternal,
			assets:     len(batch.AssetIDs),
		})
	}
	return len(batch.DueDates), nil
}

func (b *orderBook) byState(ruleID uuid.UUID, state string) []storedOrder {
	out := []storedOrder{}
	for _, o := range b.orders {
		if o.ruleID == ruleID && o.state == state {
			out = append(out, o)
		}
	}
	return out
}

type staticUsers struct{ actor users.Actor }

func (s staticUsers) CurrentUser(context.Context) (users.Actor, error) { return s.actor, nil }

var errStore = errors.New("store unavailable")
