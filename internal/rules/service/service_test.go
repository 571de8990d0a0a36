package service

import (
	"context"
	"testing"
	"time"

	"maintenance_backend/internal/rules/domain"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orgID   = uuid.MustParse("00000000-0000-0000-0000-0000000000bb")
	planner = users.Actor{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Name: "Planner"}
	fixedAt = time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *memRepo, book *orderBook, assetIDs ...uuid.UUID) *Service {
	if len(assetIDs) == 0 {
		assetIDs = []uuid.UUID{uuid.New(), uuid.New()}
	}
	svc := New(repo, staticAssets{ids: assetIDs}, book, staticUsers{actor: planner}, nil, metrics.New(), nil, 4)
	svc.SetClock(func() time.Time { return fixedAt })
	return svc
}

func monthlyInput(start time.Time) CreateInput {
	return CreateInput{
		Name:           "Forklift inspection",
		WorkType:       domain.WorkTypeInspection,
		IsInternal:     true,
		Target:         domain.Target{Type: domain.TargetModel, IDs: []uuid.UUID{uuid.New()}},
		Interval:       domain.Interval{Type: domain.IntervalMonths, Value: 1},
		StartDate:      start,
		LeadTimeDays:   7,
		RescheduleMode: domain.RescheduleActualCompletion,
	}
}

func dues(orders []storedOrder) []time.Time {
	out := make([]time.Time, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.due)
	}
	return out
}

func TestCreateMaterializesHorizonWithClamping(t *testing.T) {
	repo := newMemRepo()
	book := &orderBook{}
	svc := newTestService(repo, book)

	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 31)))
	require.NoError(t, err)

	assert.Equal(t, date(2025, time.January, 31), rule.NextDueDate)
	assert.Equal(t, planner.ID, rule.CreatedBy)
	scheduled := book.byState(rule.ID, "scheduled")
	require.Len(t, scheduled, 4)
	assert.Equal(t, []time.Time{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 31),
		date(2025, time.April, 30),
	}, dues(scheduled))
	assert.Equal(t, 2, scheduled[0].assets)
	assert.True(t, scheduled[0].isInternal)
}

func TestCreateRejectsInvalidRule(t *testing.T) {
	svc := newTestService(newMemRepo(), &orderBook{})
	in := monthlyInput(date(2025, time.January, 1))
	in.IsInternal = false

	_, err := svc.Create(context.Background(), orgID, in)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUsageBasedRuleMaterializesNothing(t *testing.T) {
	book := &orderBook{}
	svc := newTestService(newMemRepo(), book)
	in := monthlyInput(date(2025, time.January, 1))
	in.Interval = domain.Interval{Type: domain.IntervalUses, Value: 500}

	rule, err := svc.Create(context.Background(), orgID, in)
	require.NoError(t, err)
	assert.Empty(t, book.byState(rule.ID, "scheduled"))
	assert.Equal(t, []string{"delete"}, book.log)
}

func TestRegenerationIsIdempotent(t *testing.T) {
	book := &orderBook{}
	svc := newTestService(newMemRepo(), book)
	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.NoError(t, err)
	first := dues(book.byState(rule.ID, "scheduled"))

	result, err := svc.Materialize(context.Background(), orgID, rule.ID)
	require.NoError(t, err)

	assert.Equal(t, MaterializeResult{Deleted: 4, Created: 4}, result)
	assert.Equal(t, first, dues(book.byState(rule.ID, "scheduled")))
	assert.Equal(t, []string{"delete", "create", "delete", "create"}, book.log)
}

func TestScheduleChangeReplacesOnlyScheduledOrders(t *testing.T) {
	book := &orderBook{}
	svc := newTestService(newMemRepo(), book)
	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.NoError(t, err)
	book.orders[0].state = "in-progress"

	interval := domain.Interval{Type: domain.IntervalDays, Value: 10}
	updated, err := svc.Update(context.Background(), orgID, rule.ID, UpdateInput{Interval: &interval})
	require.NoError(t, err)

	assert.Equal(t, date(2025, time.January, 15), updated.NextDueDate)
	assert.Len(t, book.byState(rule.ID, "in-progress"), 1)
	assert.Equal(t, []time.Time{
		date(2025, time.January, 15),
		date(2025, time.January, 25),
		date(2025, time.February, 4),
		date(2025, time.February, 14),
	}, dues(book.byState(rule.ID, "scheduled")))
}

func TestNonTemporalEditTouchesNoOrders(t *testing.T) {
	book := &orderBook{}
	svc := newTestService(newMemRepo(), book)
	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.NoError(t, err)
	book.log = nil

	name := "Forklift safety inspection"
	updated, err := svc.Update(context.Background(), orgID, rule.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, name, updated.Name)
	assert.Empty(t, book.log)
}

func TestStartDateChangeResetsNextDueDate(t *testing.T) {
	book := &orderBook{}
	svc := newTestService(newMemRepo(), book)
	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.NoError(t, err)

	start := date(2025, time.March, 1)
	updated, err := svc.Update(context.Background(), orgID, rule.ID, UpdateInput{StartDate: &start})
	require.NoError(t, err)

	assert.Equal(t, start, updated.NextDueDate)
	assert.Equal(t, start, book.byState(rule.ID, "scheduled")[0].due)
}

func TestSwitchingToInternalRegenerates(t *testing.T) {
	book := &orderBook{}
	svc := newTestService(newMemRepo(), book)
	in := monthlyInput(date(2025, time.January, 15))
	provider := uuid.New()
	in.IsInternal = false
	in.ServiceProviderID = &provider
	rule, err := svc.Create(context.Background(), orgID, in)
	require.NoError(t, err)
	assert.False(t, book.byState(rule.ID, "scheduled")[0].isInternal)

	internal := true
	updated, err := svc.Update(context.Background(), orgID, rule.ID, UpdateInput{IsInternal: &internal})
	require.NoError(t, err)

	assert.Nil(t, updated.ServiceProviderID)
	assert.True(t, book.byState(rule.ID, "scheduled")[0].isInternal)
}

func TestDeleteRemovesScheduledOrdersThenRule(t *testing.T) {
	repo := newMemRepo()
	book := &orderBook{}
	svc := newTestService(repo, book)
	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.NoError(t, err)
	book.orders[1].state = "done"

	require.NoError(t, svc.Delete(context.Background(), orgID, rule.ID))

	assert.Empty(t, book.byState(rule.ID, "scheduled"))
	assert.Len(t, book.byState(rule.ID, "done"), 1)
	_, err = repo.GetByID(context.Background(), rule.ID, orgID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateSurfacesSchedulerFailure(t *testing.T) {
	book := &orderBook{createErr: errStore}
	svc := newTestService(newMemRepo(), book)

	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDependency))
	require.NotNil(t, rule)
}

func TestEmptyTargetCreatesNothing(t *testing.T) {
	book := &orderBook{}
	repo := newMemRepo()
	svc := New(repo, staticAssets{}, book, staticUsers{actor: planner}, nil, nil, nil, 0)

	rule, err := svc.Create(context.Background(), orgID, monthlyInput(date(2025, time.January, 15)))
	require.NoError(t, err)
	assert.Empty(t, book.byState(rule.ID, "scheduled"))
}
