package store

import (
	"context"
	"testing"
	"time"

	"maintenance_backend/internal/plans/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ttl), mr
}

func TestLoadMissingPlanReturnsDraft(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	plan, err := s.Load(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.New(), plan)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	org, user := uuid.New(), uuid.New()
	start := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	plan := domain.Reduce(domain.New(), domain.SetSchedule{
		Schedule: domain.Schedule{StartDate: &start, EndDate: &end, HoldColor: "#00aa00"},
		At:       start,
	})
	plan = domain.Reduce(plan, domain.AddAssets{Assets: []domain.AssetRef{{AssetID: uuid.New(), AssetNumber: "A-7"}}, At: start})
	plan = domain.Reduce(plan, domain.AdvanceStage{To: domain.StagePlanned, PlanID: "p-1", At: start})

	require.NoError(t, s.Save(context.Background(), org, user, plan))

	loaded, err := s.Load(context.Background(), org, user)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanID, loaded.PlanID)
	assert.Equal(t, domain.StagePlanned, loaded.Stage)
	require.Len(t, loaded.Assets, 1)
	assert.Equal(t, "A-7", loaded.Assets[0].AssetNumber)
	assert.True(t, start.Equal(*loaded.Schedule.StartDate))

	assert.Equal(t, time.Hour, mr.TTL(key(org, user)))
}

func TestSnapshotsAreScopedPerUser(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	org := uuid.New()
	name := "Spring service"
	plan := domain.Reduce(domain.New(), domain.SetDetails{Name: &name})

	require.NoError(t, s.Save(context.Background(), org, uuid.New(), plan))

	other, err := s.Load(context.Background(), org, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other.Name)
}

func TestSnapshotExpires(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	org, user := uuid.New(), uuid.New()
	name := "Expiring"
	require.NoError(t, s.Save(context.Background(), org, user, domain.Reduce(domain.New(), domain.SetDetails{Name: &name})))

	mr.FastForward(2 * time.Minute)

	plan, err := s.Load(context.Background(), org, user)
	require.NoError(t, err)
	assert.Empty(t, plan.Name)
}

func TestDelete(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	org, user := uuid.New(), uuid.New()
	require.NoError(t, s.Save(context.Background(), org, user, domain.New()))

	require.NoError(t, s.Delete(context.Background(), org, user))
	assert.False(t, mr.Exists(key(org, user)))
}

func TestCorruptSnapshotIsAnError(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	org, user := uuid.New(), uuid.New()
	require.NoError(t, mr.Set(key(org, user), "{not json"))

	_, err := s.Load(context.Background(), org, user)
	assert.Error(t, err)
}
