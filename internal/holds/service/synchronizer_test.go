package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintenance_backend/internal/holds/domain"
	"maintenance_backend/internal/holds/repository"
	plans "maintenance_backend/internal/plans/domain"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orgID   = uuid.MustParse("00000000-0000-0000-0000-0000000000cc")
	assetA  = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	assetB  = uuid.MustParse("00000000-0000-0000-0000-0000000000b2")
	fixedAt = time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	winFrom = time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC)
	winTo   = time.Date(2025, time.April, 9, 0, 0, 0, 0, time.UTC)
)

type memHolds struct {
	holds      []domain.Hold
	log        *[]string
	releaseErr map[uuid.UUID]error
	createErr  error
}

func (m *memHolds) ListHolds(_ context.Context, f repository.ListFilter) ([]domain.Hold, error) {
	out := []domain.Hold{}
	for _, h := range m.holds {
		if h.OrganizationID == f.OrganizationID && (f.PlanID == "" || h.PlanID == f.PlanID) && (f.Status == "" || h.Status == f.Status) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHolds) CreateHold(_ context.Context, h *domain.Hold) error {
	*m.log = append(*m.log, "create-hold:"+h.AssetID.String())
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.holds {
		if existing.PlanID == h.PlanID && existing.AssetID == h.AssetID && existing.Status == domain.StatusActive {
			return apperr.Conflict("asset already has an active hold for this plan")
		}
	}
	m.holds = append(m.holds, *h)
	return nil
}

func (m *memHolds) ReleaseHold(_ context.Context, _ uuid.UUID, id uuid.UUID, releasedAt time.Time) error {
	*m.log = append(*m.log, "release-hold:"+id.String())
	if err := m.releaseErr[id]; err != nil {
		return err
	}
	for i := range m.holds {
		if m.holds[i].ID == id && m.holds[i].Status == domain.StatusActive {
			at := releasedAt
			m.holds[i].Status = domain.StatusReleased
			m.holds[i].ReleasedAt = &at
			return nil
		}
	}
	return apperr.NotFound("active hold not found")
}

func (m *memHolds) active(assetID uuid.UUID) []domain.Hold {
	out := []domain.Hold{}
	for _, h := range m.holds {
		if h.AssetID == assetID && h.Status == domain.StatusActive {
			out = append(out, h)
		}
	}
	return out
}

type fakeBookings struct {
	log       *[]string
	created   []BookingRequest
	cancelled []uuid.UUID
	createErr map[uuid.UUID]error
	cancelErr error
}

func (f *fakeBookings) CreateBooking(_ context.Context, req BookingRequest) (uuid.UUID, error) {
	*f.log = append(*f.log, "create-booking:"+req.AssetID.String())
	if err := f.createErr[req.AssetID]; err != nil {
		return uuid.Nil, err
	}
	f.created = append(f.created, req)
	return uuid.New(), nil
}

func (f *fakeBookings) CancelBooking(_ context.Context, _ uuid.UUID, bookingID uuid.UUID) error {
	*f.log = append(*f.log, "cancel-booking:"+bookingID.String())
	f.cancelled = append(f.cancelled, bookingID)
	return f.cancelErr
}

func newTestSynchronizer() (*Synchronizer, *memHolds, *fakeBookings, *[]string) {
	log := &[]string{}
	holds := &memHolds{log: log, releaseErr: map[uuid.UUID]error{}}
	bookings := &fakeBookings{log: log, createErr: map[uuid.UUID]error{}}
	s := NewSynchronizer(holds, bookings, metrics.New(), nil)
	s.SetClock(func() time.Time { return fixedAt })
	return s, holds, bookings, log
}

func plannedPlan() plans.Plan {
	p := plans.New()
	p.Name = "Spring service"
	p = plans.Reduce(p, plans.SetSchedule{Schedule: plans.Schedule{StartDate: &winFrom, EndDate: &winTo, HoldColor: "#f80"}, At: fixedAt})
	p = plans.Reduce(p, plans.AddAssets{Assets: []plans.AssetRef{{AssetID: assetA}, {AssetID: assetB}}, At: fixedAt})
	return plans.Reduce(p, plans.AdvanceStage{To: plans.StagePlanned, PlanID: "plan-7", At: fixedAt})
}

func activeHold(assetID uuid.UUID, from, to time.Time) domain.Hold {
	booking := uuid.New()
	return domain.Hold{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PlanID:         "plan-7",
		AssetID:        assetID,
		StartDate:      from,
		EndDate:        to,
		BookingID:      &booking,
		HoldColor:      "#f80",
		Status:         domain.StatusActive,
	}
}

func TestSyncWithoutPlanIDIsNoOp(t *testing.T) {
	s, _, _, log := newTestSynchronizer()

	result, err := s.Sync(context.Background(), orgID, plans.New())
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, *log)
}

func TestSyncCreatesOneHoldPerPendingAsset(t *testing.T) {
	s, holds, bookings, _ := newTestSynchronizer()

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.NoError(t, err)

	require.Len(t, result.Created, 2)
	assert.Len(t, holds.active(assetA), 1)
	assert.Len(t, holds.active(assetB), 1)
	require.Len(t, bookings.created, 2)
	assert.Equal(t, "Spring service", bookings.created[0].Title)
	assert.Equal(t, winFrom, result.Created[0].StartDate)
	assert.NotNil(t, result.Created[0].BookingID)
}

func TestSyncIsIdempotent(t *testing.T) {
	s, holds, _, log := newTestSynchronizer()
	_, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.NoError(t, err)
	*log = nil

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Released)
	assert.Empty(t, *log)
	assert.Len(t, holds.holds, 2)
}

func TestSyncReleasesStaleHoldBeforeReplacing(t *testing.T) {
	s, holds, bookings, log := newTestSynchronizer()
	stale := activeHold(assetA, winFrom.AddDate(0, 0, -7), winTo.AddDate(0, 0, -7))
	current := activeHold(assetB, winFrom, winTo)
	holds.holds = []domain.Hold{stale, current}

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.NoError(t, err)

	require.Len(t, result.Released, 1)
	assert.Equal(t, stale.ID, result.Released[0].ID)
	require.Len(t, result.Created, 1)
	assert.Equal(t, assetA, result.Created[0].AssetID)
	assert.Equal(t, []uuid.UUID{*stale.BookingID}, bookings.cancelled)
	assert.Equal(t, []string{
		"cancel-booking:" + stale.BookingID.String(),
		"release-hold:" + stale.ID.String(),
		"create-booking:" + assetA.String(),
		"create-hold:" + assetA.String(),
	}, *log)
	assert.Len(t, holds.active(assetA), 1)
}

func TestSyncReleasesDanglingAndNotNeededHolds(t *testing.T) {
	s, holds, _, _ := newTestSynchronizer()
	removed := uuid.New()
	dangling := activeHold(removed, winFrom, winTo)
	done := activeHold(assetB, winFrom, winTo)
	holds.holds = []domain.Hold{dangling, done}

	plan := plannedPlan()
	plan = plans.Reduce(plan, plans.MarkAssetSkipped{AssetID: assetB, At: fixedAt})

	result, err := s.Sync(context.Background(), orgID, plan)
	require.NoError(t, err)

	assert.Len(t, result.Released, 2)
	assert.Empty(t, holds.active(removed))
	assert.Empty(t, holds.active(assetB))
	assert.Len(t, holds.active(assetA), 1)
}

func TestSyncReleasesEverythingForDraftPlan(t *testing.T) {
	s, holds, _, _ := newTestSynchronizer()
	holds.holds = []domain.Hold{activeHold(assetA, winFrom, winTo), activeHold(assetB, winFrom, winTo)}

	plan := plans.Reduce(plannedPlan(), plans.AdvanceStage{To: plans.StageDraft, At: fixedAt})
	result, err := s.Sync(context.Background(), orgID, plan)
	require.NoError(t, err)

	assert.Len(t, result.Released, 2)
	assert.Empty(t, result.Created)
}

func TestSyncReleasesDuplicateHolds(t *testing.T) {
	s, holds, _, _ := newTestSynchronizer()
	first := activeHold(assetA, winFrom, winTo)
	second := activeHold(assetA, winFrom, winTo)
	holds.holds = []domain.Hold{first, second, activeHold(assetB, winFrom, winTo)}

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.NoError(t, err)

	require.Len(t, result.Released, 1)
	assert.Equal(t, second.ID, result.Released[0].ID)
	assert.Equal(t, []domain.Hold{first}, holds.active(assetA))
}

func TestSyncSwallowsBookingCancelFailure(t *testing.T) {
	s, holds, bookings, _ := newTestSynchronizer()
	bookings.cancelErr = errors.New("calendar offline")
	holds.holds = []domain.Hold{activeHold(uuid.New(), winFrom, winTo)}

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.NoError(t, err)
	assert.Len(t, result.Released, 1)
	assert.Empty(t, result.Failed)
}

func TestSyncSurfacesCreateFailurePerAsset(t *testing.T) {
	s, holds, bookings, _ := newTestSynchronizer()
	bookings.createErr[assetA] = errors.New("calendar full")

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar full")

	require.Len(t, result.Failed, 1)
	assert.Equal(t, assetA, result.Failed[0].AssetID)
	assert.Equal(t, "create", result.Failed[0].Action)
	require.Len(t, result.Created, 1)
	assert.Equal(t, assetB, result.Created[0].AssetID)
	assert.Empty(t, holds.active(assetA))
}

func TestSyncCancelsBookingWhenHoldInsertFails(t *testing.T) {
	s, holds, bookings, _ := newTestSynchronizer()
	holds.createErr = errors.New("insert failed")

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.Error(t, err)
	assert.Len(t, result.Failed, 2)
	assert.Len(t, bookings.cancelled, 2)
}

func TestSyncSkipsCreateWhenReleaseFailed(t *testing.T) {
	s, holds, _, _ := newTestSynchronizer()
	stale := activeHold(assetA, winFrom.AddDate(0, 0, 1), winTo)
	holds.holds = []domain.Hold{stale}
	holds.releaseErr[stale.ID] = errors.New("locked")

	result, err := s.Sync(context.Background(), orgID, plannedPlan())
	require.Error(t, err)

	assert.Len(t, result.Failed, 2)
	assert.Len(t, holds.active(assetA), 1)
	require.Len(t, result.Created, 1)
	assert.Equal(t, assetB, result.Created[0].AssetID)
}

func TestSyncKeepsHoldsForImpreciseScheduleAndBlankColor(t *testing.T) {
	s, holds, _, log := newTestSynchronizer()
	from := winFrom.Add(9*time.Hour + 123456789*time.Nanosecond)
	to := winTo.Add(17 * time.Hour)
	p := plans.New()
	p = plans.Reduce(p, plans.SetSchedule{Schedule: plans.Schedule{StartDate: &from, EndDate: &to, HoldColor: "  "}, At: fixedAt})
	p = plans.Reduce(p, plans.AddAssets{Assets: []plans.AssetRef{{AssetID: assetA}}, At: fixedAt})
	p = plans.Reduce(p, plans.AdvanceStage{To: plans.StagePlanned, PlanID: "plan-7", At: fixedAt})

	stored := activeHold(assetA, winFrom, winTo)
	stored.HoldColor = "  "
	holds.holds = []domain.Hold{stored}

	result, err := s.Sync(context.Background(), orgID, p)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Released)
	assert.Empty(t, *log)
}
