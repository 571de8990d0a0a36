package domain

import (
	"slices"
	"testing"
	"time"

	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	actor = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	now   = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
)

func newOrder(t Type, state State) WorkOrder {
	return WorkOrder{
		ID:      uuid.New(),
		Type:    t,
		State:   state,
		History: []HistoryEntry{{State: state, ChangedBy: actor, ChangedAt: now.Add(-time.Hour)}},
		LineItems: []LineItem{
			{AssetID: uuid.New(), CompletionStatus: CompletionPending},
			{AssetID: uuid.New(), CompletionStatus: CompletionPending},
		},
	}
}

// fullCommand carries every payload so only edges and guards can reject it.
func fullCommand(e Event) Command {
	assignee := uuid.New()
	company := uuid.New()
	start := now.Add(24 * time.Hour)
	return Command{
		Event:          e,
		AssignedTo:     &assignee,
		ScheduledStart: &start,
		CompanyID:      &company,
		Offer:          &Offer{CompanyID: company, Amount: decimal.NewFromInt(100)},
	}
}

func TestLifecycleTotality(t *testing.T) {
	for _, typ := range []Type{TypeInternal, TypeExternal} {
		lc, err := LifecycleFor(typ)
		require.NoError(t, err)

		for _, state := range lc.States() {
			allowed := lc.Events(state)
			for _, event := range Events {
				if slices.Contains(allowed, event) {
					continue
				}
				t.Run(string(typ)+"/"+string(state)+"/"+string(event), func(t *testing.T) {
					before := newOrder(typ, state)
					after, err := lc.Apply(before, fullCommand(event), actor, now)

					require.Error(t, err)
					assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
					assert.Equal(t, state, after.State)
					assert.Len(t, after.History, 1)
				})
			}
		}
	}
}

func TestForeignStatesAreRejected(t *testing.T) {
	internal, _ := LifecycleFor(TypeInternal)
	external, _ := LifecycleFor(TypeExternal)

	assert.False(t, slices.Contains(internal.States(), StateOfferRequested))
	assert.False(t, slices.Contains(internal.States(), StateOfferReceived))
	assert.False(t, slices.Contains(external.States(), StateAssigned))
	assert.False(t, ValidState(TypeInternal, StateOfferReceived))
	assert.True(t, ValidState(TypeExternal, StateScheduled))

	order := newOrder(TypeInternal, StateOfferRequested)
	_, err := internal.Apply(order, fullCommand(EventReceiveOffer), actor, now)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestScheduledOrdersRejectEveryEvent(t *testing.T) {
	for _, typ := range []Type{TypeInternal, TypeExternal} {
		lc, _ := LifecycleFor(typ)
		assert.Empty(t, lc.Events(StateScheduled))
	}
}

func TestInternalHappyPath(t *testing.T) {
	lc, _ := LifecycleFor(TypeInternal)
	w := newOrder(TypeInternal, StateBacklog)
	approver := uuid.New()
	w.ApprovalResponsibleID = &approver

	w, err := lc.Apply(w, fullCommand(EventAssign), actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateAssigned, w.State)
	require.NotNil(t, w.AssignedTo)

	w, err = lc.Apply(w, fullCommand(EventPlan), actor, now)
	require.NoError(t, err)
	assert.Equal(t, StatePlanned, w.State)
	require.NotNil(t, w.ScheduledStart)

	w, err = lc.Apply(w, Command{Event: EventStart}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, w.State)
	assert.Equal(t, now, *w.ActualStart)

	for _, li := range w.LineItems {
		w, _ = SetLineItemStatus(w, li.AssetID, CompletionCompleted, now)
	}
	end := now.Add(3 * time.Hour)
	w, err = lc.Apply(w, Command{Event: EventComplete, ActualEnd: &end}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, w.State)
	assert.Equal(t, end, *w.ActualEnd)

	w, err = lc.Apply(w, Command{Event: EventApprove}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateDone, w.State)

	states := make([]State, 0, len(w.History))
	for _, h := range w.History {
		states = append(states, h.State)
	}
	assert.Equal(t, []State{StateBacklog, StateAssigned, StatePlanned, StateInProgress, StateCompleted, StateDone}, states)
	assert.Equal(t, w.State, w.History[len(w.History)-1].State)
}

func TestCompletionGuard(t *testing.T) {
	lc, _ := LifecycleFor(TypeInternal)
	w := newOrder(TypeInternal, StateInProgress)
	w, _ = SetLineItemStatus(w, w.LineItems[0].AssetID, CompletionCompleted, now)

	after, err := lc.Apply(w, Command{Event: EventComplete}, actor, now)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	assert.Equal(t, StateInProgress, after.State)
	assert.Nil(t, after.ActualEnd)
	assert.Len(t, after.History, 1)

	w, _ = SetLineItemStatus(w, w.LineItems[1].AssetID, CompletionCompleted, now)
	after, err = lc.Apply(w, Command{Event: EventComplete}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, after.State)
	require.NotNil(t, after.ActualEnd)
	assert.Equal(t, now, *after.ActualEnd)
}

func TestApproveRequiresResponsible(t *testing.T) {
	lc, _ := LifecycleFor(TypeExternal)
	w := newOrder(TypeExternal, StateCompleted)

	_, err := lc.Apply(w, Command{Event: EventApprove}, actor, now)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestReopenClearsActualEnd(t *testing.T) {
	lc, _ := LifecycleFor(TypeInternal)
	w := newOrder(TypeInternal, StateCompleted)
	end := now
	w.ActualEnd = &end

	w, err := lc.Apply(w, Command{Event: EventReopen}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, w.State)
	assert.Nil(t, w.ActualEnd)
}

func TestExternalOfferFlow(t *testing.T) {
	lc, _ := LifecycleFor(TypeExternal)
	w := newOrder(TypeExternal, StateBacklog)
	first := uuid.New()
	second := uuid.New()

	w, err := lc.Apply(w, Command{Event: EventRequestOffer, CompanyID: &first}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateOfferRequested, w.State)
	assert.Equal(t, []uuid.UUID{first}, w.RequestedCompanyIDs)
	assert.Nil(t, w.CompanyID)

	w, err = lc.Apply(w, Command{Event: EventReceiveOffer, Offer: &Offer{CompanyID: first, Amount: decimal.RequireFromString("1250.50")}}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateOfferReceived, w.State)
	require.Len(t, w.Offers, 1)
	assert.Equal(t, now, w.Offers[0].ReceivedAt)
	historyLen := len(w.History)

	w, err = lc.Apply(w, Command{Event: EventReceiveOffer, Offer: &Offer{CompanyID: second, Amount: decimal.NewFromInt(990)}}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateOfferReceived, w.State)
	assert.Len(t, w.Offers, 2)
	assert.Len(t, w.History, historyLen)

	w, err = lc.Apply(w, Command{Event: EventRequestMoreOffers, CompanyID: &second}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StateOfferRequested, w.State)
	assert.Len(t, w.Offers, 2)
	assert.ElementsMatch(t, []uuid.UUID{first, second}, w.RequestedCompanyIDs)

	w, err = lc.Apply(w, Command{Event: EventReceiveOffer, Offer: &Offer{CompanyID: second, Amount: decimal.NewFromInt(900)}}, actor, now)
	require.NoError(t, err)

	w, err = AcceptOffer(w, second, now)
	require.NoError(t, err)
	assert.Equal(t, second, *w.CompanyID)

	start := now.Add(48 * time.Hour)
	w, err = lc.Apply(w, Command{Event: EventPlan, ScheduledStart: &start}, actor, now)
	require.NoError(t, err)
	assert.Equal(t, StatePlanned, w.State)
}

func TestRejectedOfferLeavesOrderUntouched(t *testing.T) {
	lc, _ := LifecycleFor(TypeExternal)
	w := newOrder(TypeExternal, StateOfferRequested)

	after, err := lc.Apply(w, Command{Event: EventReceiveOffer, Offer: &Offer{CompanyID: uuid.New(), Amount: decimal.NewFromInt(-1)}}, actor, now)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, after.Offers)
	assert.Equal(t, StateOfferRequested, after.State)
}

func TestAcceptOfferRequiresOfferOnFile(t *testing.T) {
	w := newOrder(TypeExternal, StateOfferReceived)
	w.Offers = []Offer{{CompanyID: uuid.New(), Amount: decimal.NewFromInt(10)}}

	_, err := AcceptOffer(w, uuid.New(), now)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	w.State = StateOfferRequested
	_, err = AcceptOffer(w, w.Offers[0].CompanyID, now)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestAbortAndObsoleteScope(t *testing.T) {
	lc, _ := LifecycleFor(TypeExternal)

	for _, state := range []State{StateBacklog, StateOfferRequested, StateOfferReceived, StatePlanned, StateInProgress} {
		w, err := lc.Apply(newOrder(TypeExternal, state), Command{Event: EventAbort}, actor, now)
		require.NoError(t, err, state)
		assert.Equal(t, StateAborted, w.State)
	}
	for _, state := range []State{StateCompleted, StateDone, StateAborted, StateObsolete} {
		_, err := lc.Apply(newOrder(TypeExternal, state), Command{Event: EventAbort}, actor, now)
		assert.Error(t, err, state)
	}

	_, err := lc.Apply(newOrder(TypeExternal, StateInProgress), Command{Event: EventMarkObsolete}, actor, now)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	lc, _ := LifecycleFor(TypeExternal)
	w := newOrder(TypeExternal, StateOfferRequested)
	w.History = slices.Grow(w.History, 4)

	_, err := lc.Apply(w, fullCommand(EventReceiveOffer), actor, now)
	require.NoError(t, err)
	assert.Len(t, w.History, 1)
	assert.Empty(t, w.Offers)
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent("START")
	require.NoError(t, err)
	assert.Equal(t, EventStart, e)

	_, err = ParseEvent("ACCEPT_OFFER")
	assert.Error(t, err)
}
