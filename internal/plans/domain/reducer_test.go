package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0      = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	t1      = t0.Add(2 * time.Hour)
	t2      = t0.Add(26 * time.Hour)
	worker  = uuid.MustParse("00000000-0000-0000-0000-000000000010")
	assetA  = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	assetB  = uuid.MustParse("00000000-0000-0000-0000-0000000000b2")
	startAt = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	endAt   = time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
)

func readyPlan() Plan {
	p := New()
	p = Reduce(p, SetSchedule{Schedule: Schedule{StartDate: &startAt, EndDate: &endAt, HoldColor: "#ff8800"}, At: t0})
	p = Reduce(p, AddAssets{Assets: []AssetRef{
		{AssetID: assetA, AssetNumber: "A-1", AssetName: "Drill"},
		{AssetID: assetB, AssetNumber: "B-2", AssetName: "Saw"},
	}, At: t0})
	return p
}

func plannedPlan() Plan {
	return Reduce(readyPlan(), AdvanceStage{To: StagePlanned, PlanID: "plan-1", At: t0})
}

func TestAdvanceToPlannedReportsGuards(t *testing.T) {
	p := Reduce(New(), AdvanceStage{To: StagePlanned, PlanID: "plan-1", At: t0})

	assert.Equal(t, StageDraft, p.Stage)
	assert.Equal(t, []string{WarnStartDateRequired, WarnEndDateRequired, WarnAssetsRequired}, p.StageWarnings)
	assert.Empty(t, p.PlanID)
	assert.Nil(t, p.LastTransitionAt)
}

func TestAdvanceToPlannedRejectsInvertedWindow(t *testing.T) {
	p := readyPlan()
	p = Reduce(p, SetSchedule{Schedule: Schedule{StartDate: &endAt, EndDate: &startAt}, At: t0})
	p = Reduce(p, AdvanceStage{To: StagePlanned, PlanID: "plan-1", At: t0})

	assert.Equal(t, StageDraft, p.Stage)
	assert.Equal(t, []string{WarnEndBeforeStart}, p.StageWarnings)
}

func TestPlanIDAssignedOnce(t *testing.T) {
	p := plannedPlan()
	require.Equal(t, StagePlanned, p.Stage)
	assert.Equal(t, "plan-1", p.PlanID)
	assert.Empty(t, p.StageWarnings)

	p = Reduce(p, AdvanceStage{To: StageDraft, At: t1})
	p = Reduce(p, AdvanceStage{To: StagePlanned, PlanID: "plan-2", At: t2})

	assert.Equal(t, StagePlanned, p.Stage)
	assert.Equal(t, "plan-1", p.PlanID)
}

func TestAutoCompletionStampedWithEventTime(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, ByName: "Sam", At: t1})
	require.Equal(t, StagePlanned, p.Stage)

	p = Reduce(p, MarkAssetSkipped{AssetID: assetB, At: t2})

	assert.Equal(t, StageCompleted, p.Stage)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, t2, *p.CompletedAt)
	assert.Equal(t, t2, *p.LastTransitionAt)

	a, _ := p.Asset(assetA)
	assert.Equal(t, AssetCompleted, a.Status)
	assert.Equal(t, t1, *a.CompletedAt)
	assert.Equal(t, "Sam", a.CompletedByName)
}

func TestPendingAssetDemotesCompletedPlan(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, MarkAssetCompleted{AssetID: assetB, By: worker, At: t1})
	require.Equal(t, StageCompleted, p.Stage)

	p = Reduce(p, MarkAssetPending{AssetID: assetB, At: t2})

	assert.Equal(t, StagePlanned, p.Stage)
	assert.Nil(t, p.CompletedAt)
	assert.Equal(t, t2, *p.LastTransitionAt)
	assert.Equal(t, []string{WarnAssetsIncomplete}, p.StageWarnings)
	b, _ := p.Asset(assetB)
	assert.Nil(t, b.CompletedAt)
	assert.Nil(t, b.CompletedBy)
}

func TestDraftNeverAutoCompletes(t *testing.T) {
	p := readyPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, MarkAssetCompleted{AssetID: assetB, By: worker, At: t1})

	assert.Equal(t, StageDraft, p.Stage)
	assert.Nil(t, p.CompletedAt)
}

func TestRemovingLastAssetDropsToDraft(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, RemoveAsset{AssetID: assetA, At: t1})
	require.Equal(t, StagePlanned, p.Stage)

	p = Reduce(p, RemoveAsset{AssetID: assetB, At: t2})

	assert.Equal(t, StageDraft, p.Stage)
	assert.Equal(t, []string{WarnAssetsRequired}, p.StageWarnings)
	assert.Equal(t, t2, *p.LastTransitionAt)
}

func TestRemovingLastPendingAssetCompletes(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, RemoveAsset{AssetID: assetB, At: t2})

	assert.Equal(t, StageCompleted, p.Stage)
	assert.Equal(t, t2, *p.CompletedAt)
}

func TestClearingScheduleDropsPlannedToDraft(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, SetSchedule{Schedule: Schedule{StartDate: &startAt}, At: t1})

	assert.Equal(t, StageDraft, p.Stage)
	assert.Equal(t, []string{WarnEndDateRequired}, p.StageWarnings)
}

func TestAddAssetsDeduplicates(t *testing.T) {
	p := readyPlan()
	p = Reduce(p, AddAssets{Assets: []AssetRef{{AssetID: assetA, AssetNumber: "A-1"}}, At: t1})
	assert.Len(t, p.Assets, 2)
}

func TestAddingAssetReopensCompletedPlan(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, MarkAssetCompleted{AssetID: assetB, By: worker, At: t1})
	require.Equal(t, StageCompleted, p.Stage)

	p = Reduce(p, AddAssets{Assets: []AssetRef{{AssetID: uuid.New(), AssetNumber: "C-3"}}, At: t2})
	assert.Equal(t, StagePlanned, p.Stage)
}

func TestExplicitCompletionRequiresAllAssetsDone(t *testing.T) {
	p := Reduce(plannedPlan(), AdvanceStage{To: StageCompleted, At: t1})
	assert.Equal(t, StagePlanned, p.Stage)
	assert.Equal(t, []string{WarnAssetsIncomplete}, p.StageWarnings)

	p = Reduce(readyPlan(), AdvanceStage{To: StageCompleted, At: t1})
	assert.Equal(t, []string{WarnNotPlanned}, p.StageWarnings)
}

func TestPlanningCompletedPlanKeepsItCompleted(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, MarkAssetCompleted{AssetID: assetB, By: worker, At: t1})
	require.Equal(t, StageCompleted, p.Stage)

	p = Reduce(p, AdvanceStage{To: StagePlanned, At: t2})

	assert.Equal(t, StageCompleted, p.Stage)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, t1, *p.CompletedAt)
}

func TestPlanningWithAllAssetsDoneCompletes(t *testing.T) {
	p := readyPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, MarkAssetSkipped{AssetID: assetB, At: t1})
	require.Equal(t, StageDraft, p.Stage)

	p = Reduce(p, AdvanceStage{To: StagePlanned, PlanID: "plan-1", At: t2})

	assert.Equal(t, StageCompleted, p.Stage)
	assert.Equal(t, "plan-1", p.PlanID)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, t2, *p.CompletedAt)
	assert.Empty(t, p.StageWarnings)
}

func TestReopenCompletedPlanByDraftThenPlanned(t *testing.T) {
	p := plannedPlan()
	p = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	p = Reduce(p, MarkAssetCompleted{AssetID: assetB, By: worker, At: t1})
	p = Reduce(p, MarkAssetPending{AssetID: assetA, At: t2})
	p = Reduce(p, AdvanceStage{To: StageDraft, At: t2})

	p = Reduce(p, AdvanceStage{To: StagePlanned, At: t2})

	assert.Equal(t, StagePlanned, p.Stage)
	assert.Nil(t, p.CompletedAt)
}

func TestScheduleIsStoredAsCalendarDates(t *testing.T) {
	start := time.Date(2025, time.March, 10, 14, 30, 5, 123456789, time.UTC)
	end := time.Date(2025, time.March, 14, 23, 59, 59, 999999999, time.FixedZone("CET", 3600))

	p := Reduce(New(), SetSchedule{Schedule: Schedule{StartDate: &start, EndDate: &end}, At: t0})

	require.NotNil(t, p.Schedule.StartDate)
	require.NotNil(t, p.Schedule.EndDate)
	assert.Equal(t, startAt, *p.Schedule.StartDate)
	assert.Equal(t, endAt, *p.Schedule.EndDate)
}

func TestMarkUnknownAssetIsNoOp(t *testing.T) {
	p := plannedPlan()
	next := Reduce(p, MarkAssetCompleted{AssetID: uuid.New(), By: worker, At: t1})
	assert.Equal(t, p, next)
}

func TestApplyHoldResults(t *testing.T) {
	oldHold := uuid.New()
	newHold := uuid.New()
	p := plannedPlan()
	p.Assets[0].HoldID = &oldHold

	p = Reduce(p, ApplyHoldResults{
		Released: []uuid.UUID{oldHold},
		Created:  []HoldRef{{AssetID: assetB, HoldID: newHold}},
	})

	a, _ := p.Asset(assetA)
	b, _ := p.Asset(assetB)
	assert.Nil(t, a.HoldID)
	require.NotNil(t, b.HoldID)
	assert.Equal(t, newHold, *b.HoldID)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	p := plannedPlan()
	snapshot := p.Clone()

	_ = Reduce(p, MarkAssetCompleted{AssetID: assetA, By: worker, At: t1})
	_ = Reduce(p, RemoveAsset{AssetID: assetB, At: t1})

	assert.Equal(t, snapshot, p)
}

func TestReset(t *testing.T) {
	p := Reduce(plannedPlan(), Reset{})
	assert.Equal(t, New(), p)
}
