package domain

import (
	"fmt"
	"slices"
	"time"

	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
)

// Event is a lifecycle event name.
type Event string

const (
	EventAssign            Event = "ASSIGN"
	EventPlan              Event = "PLAN"
	EventStart             Event = "START"
	EventComplete          Event = "COMPLETE"
	EventApprove           Event = "APPROVE"
	EventReopen            Event = "REOPEN"
	EventAbort             Event = "ABORT"
	EventMarkObsolete      Event = "MARK_OBSOLETE"
	EventRequestOffer      Event = "REQUEST_OFFER"
	EventRequestMoreOffers Event = "REQUEST_MORE_OFFERS"
	EventReceiveOffer      Event = "RECEIVE_OFFER"

	// EventAcceptOffer names offer acceptance in errors. It never changes state.
	EventAcceptOffer Event = "ACCEPT_OFFER"
)

// Events lists every lifecycle event, in table order.
var Events = []Event{
	EventAssign, EventPlan, EventStart, EventComplete, EventApprove, EventReopen,
	EventAbort, EventMarkObsolete, EventRequestOffer, EventRequestMoreOffers, EventReceiveOffer,
}

// ParseEvent validates a client supplied event name.
func ParseEvent(raw string) (Event, error) {
	e := Event(raw)
	if !slices.Contains(Events, e) {
		return "", apperr.Validation(fmt.Sprintf("unknown work order event %q", raw))
	}
	return e, nil
}

// Command is a lifecycle event plus the data it carries.
type Command struct {
	Event          Event
	AssignedTo     *uuid.UUID
	ScheduledStart *time.Time
	ActualEnd      *time.Time
	CompanyID      *uuid.UUID
	Offer          *Offer
}

// Lifecycle is the transition table of one work order type.
type Lifecycle interface {
	// Type is the work order type this lifecycle governs.
	Type() Type
	// States lists every state an order of this type may be in, scheduled included.
	States() []State
	// Events lists the events accepted in state, in a stable order.
	Events(state State) []Event
	// Apply returns the order after cmd, or an error and the order unchanged.
	Apply(w WorkOrder, cmd Command, by uuid.UUID, now time.Time) (WorkOrder, error)
}

type guardFunc func(w WorkOrder, cmd Command) error
type effectFunc func(w *WorkOrder, cmd Command, now time.Time)

type transition struct {
	to     State
	guard  guardFunc
	effect effectFunc
}

type table map[State]map[Event]transition

type machine struct {
	kind   Type
	states []State
	table  table
}

type internalLifecycle struct{ machine }
type externalLifecycle struct{ machine }

var (
	internalMachine = internalLifecycle{newInternalMachine()}
	externalMachine = externalLifecycle{newExternalMachine()}
)

// LifecycleFor returns the lifecycle of t.
func LifecycleFor(t Type) (Lifecycle, error) {
	switch t {
	case TypeInternal:
		return internalMachine, nil
	case TypeExternal:
		return externalMachine, nil
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown work order type %q", t))
	}
}

// ValidState reports whether state belongs to the lifecycle of t.
func ValidState(t Type, state State) bool {
	lc, err := LifecycleFor(t)
	if err != nil {
		return false
	}
	return slices.Contains(lc.States(), state)
}

func (m machine) Type() Type { return m.kind }

func (m machine) States() []State { return slices.Clone(m.states) }

func (m machine) Events(state State) []Event {
	edges := m.table[state]
	events := make([]Event, 0, len(edges))
	for e := range edges {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}

func (m machine) Apply(w WorkOrder, cmd Command, by uuid.UUID, now time.Time) (WorkOrder, error) {
	if w.Type != m.kind {
		return w, apperr.Validation(fmt.Sprintf("%s lifecycle cannot drive a %s work order", m.kind, w.Type))
	}
	edge, ok := m.table[w.State][cmd.Event]
	if !ok {
		return w, apperr.InvalidTransition(string(w.State), string(cmd.Event))
	}
	if edge.guard != nil {
		if err := edge.guard(w, cmd); err != nil {
			return w, err
		}
	}

	out := w.Clone()
	if edge.effect != nil {
		edge.effect(&out, cmd, now)
	}
	if out.State != edge.to {
		out.State = edge.to
		out.History = append(out.History, HistoryEntry{State: edge.to, ChangedBy: by, ChangedAt: now})
	}
	out.UpdatedAt = now
	return out, nil
}

func newInternalMachine() machine {
	t := table{
		StateBacklog: {
			EventAssign:       {to: StateAssigned, guard: requireAssignee, effect: setAssignee},
			EventAbort:        {to: StateAborted},
			EventMarkObsolete: {to: StateObsolete},
		},
		StateAssigned: {
			EventPlan:         {to: StatePlanned, guard: requireScheduledStart, effect: setScheduledStart},
			EventAbort:        {to: StateAborted},
			EventMarkObsolete: {to: StateObsolete},
		},
	}
	addExecutionStates(t)
	return machine{
		kind: TypeInternal,
		states: []State{
			StateScheduled, StateBacklog, StateAssigned, StatePlanned, StateInProgress,
			StateCompleted, StateDone, StateAborted, StateObsolete,
		},
		table: t,
	}
}

func newExternalMachine() machine {
	t := table{
		StateBacklog: {
			EventRequestOffer: {to: StateOfferRequested, guard: requireCompany, effect: recordRequestedCompany},
			EventAbort:        {to: StateAborted},
			EventMarkObsolete: {to: StateObsolete},
		},
		StateOfferRequested: {
			EventReceiveOffer: {to: StateOfferReceived, guard: requireOffer, effect: appendOffer},
			EventAbort:        {to: StateAborted},
			EventMarkObsolete: {to: StateObsolete},
		},
		StateOfferReceived: {
			EventReceiveOffer:      {to: StateOfferReceived, guard: requireOffer, effect: appendOffer},
			EventRequestMoreOffers: {to: StateOfferRequested, effect: recordRequestedCompany},
			EventPlan:              {to: StatePlanned, guard: requireScheduledStart, effect: setScheduledStart},
			EventAbort:             {to: StateAborted},
			EventMarkObsolete:      {to: StateObsolete},
		},
	}
	addExecutionStates(t)
	return machine{
		kind: TypeExternal,
		states: []State{
			StateScheduled, StateBacklog, StateOfferRequested, StateOfferReceived, StatePlanned,
			StateInProgress, StateCompleted, StateDone, StateAborted, StateObsolete,
		},
		table: t,
	}
}

// addExecutionStates adds the edges both types share from planned onward.
func addExecutionStates(t table) {
	t[StatePlanned] = map[Event]transition{
		EventStart:        {to: StateInProgress, effect: stampActualStart},
		EventAbort:        {to: StateAborted},
		EventMarkObsolete: {to: StateObsolete},
	}
	t[StateInProgress] = map[Event]transition{
		EventComplete: {to: StateCompleted, guard: requireLineItemsCompleted, effect: stampActualEnd},
		EventAbort:    {to: StateAborted},
	}
	t[StateCompleted] = map[Event]transition{
		EventApprove: {to: StateDone, guard: requireApprover},
		EventReopen:  {to: StateInProgress, effect: clearActualEnd},
	}
}

func guardFailed(state State, event Event, reason string) error {
	return apperr.New(apperr.KindInvalidTransition, fmt.Sprintf("event %s is not allowed in state %s: %s", event, state, reason)).
		WithDetails(map[string]string{"state": string(state), "event": string(event), "reason": reason})
}

func requireAssignee(_ WorkOrder, cmd Command) error {
	if cmd.AssignedTo == nil || *cmd.AssignedTo == uuid.Nil {
		return apperr.Validation("assignedTo is required")
	}
	return nil
}

func requireScheduledStart(_ WorkOrder, cmd Command) error {
	if cmd.ScheduledStart == nil || cmd.ScheduledStart.IsZero() {
		return apperr.Validation("scheduledStart is required")
	}
	return nil
}

func requireCompany(_ WorkOrder, cmd Command) error {
	if cmd.CompanyID == nil || *cmd.CompanyID == uuid.Nil {
		return apperr.Validation("companyId is required")
	}
	return nil
}

func requireOffer(_ WorkOrder, cmd Command) error {
	if cmd.Offer == nil || cmd.Offer.CompanyID == uuid.Nil {
		return apperr.Validation("offer with companyId is required")
	}
	if cmd.Offer.Amount.IsNegative() {
		return apperr.Validation("offer amount must not be negative")
	}
	return nil
}

func requireLineItemsCompleted(w WorkOrder, cmd Command) error {
	if !w.AllLineItemsCompleted() {
		return guardFailed(w.State, cmd.Event, "every line item must be completed")
	}
	return nil
}

func requireApprover(w WorkOrder, cmd Command) error {
	if w.ApprovalResponsibleID == nil || *w.ApprovalResponsibleID == uuid.Nil {
		return guardFailed(w.State, cmd.Event, "an approval responsible is required")
	}
	return nil
}

func setAssignee(w *WorkOrder, cmd Command, _ time.Time) {
	assignee := *cmd.AssignedTo
	w.AssignedTo = &assignee
}

func setScheduledStart(w *WorkOrder, cmd Command, _ time.Time) {
	start := *cmd.ScheduledStart
	w.ScheduledStart = &start
}

func stampActualStart(w *WorkOrder, _ Command, now time.Time) {
	at := now
	w.ActualStart = &at
}

func stampActualEnd(w *WorkOrder, cmd Command, now time.Time) {
	at := now
	if cmd.ActualEnd != nil && !cmd.ActualEnd.IsZero() {
		at = *cmd.ActualEnd
	}
	w.ActualEnd = &at
}

func clearActualEnd(w *WorkOrder, _ Command, _ time.Time) {
	w.ActualEnd = nil
}

func recordRequestedCompany(w *WorkOrder, cmd Command, _ time.Time) {
	if cmd.CompanyID == nil || *cmd.CompanyID == uuid.Nil {
		return
	}
	if !slices.Contains(w.RequestedCompanyIDs, *cmd.CompanyID) {
		w.RequestedCompanyIDs = append(w.RequestedCompanyIDs, *cmd.CompanyID)
	}
}

func appendOffer(w *WorkOrder, cmd Command, now time.Time) {
	offer := *cmd.Offer
	if offer.ReceivedAt.IsZero() {
		offer.ReceivedAt = now
	}
	w.Offers = append(w.Offers, offer)
}

// AcceptOffer selects the contractor of an external order that has received
// offers. The company must have an offer on file.
func AcceptOffer(w WorkOrder, companyID uuid.UUID, now time.Time) (WorkOrder, error) {
	if w.Type != TypeExternal || w.State != StateOfferReceived {
		return w, apperr.InvalidTransition(string(w.State), string(EventAcceptOffer))
	}
	if !w.HasOfferFrom(companyID) {
		return w, apperr.Validation("company has no offer on this work order")
	}
	out := w.Clone()
	company := companyID
	out.CompanyID = &company
	out.UpdatedAt = now
	return out, nil
}
