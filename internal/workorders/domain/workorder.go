// Package domain holds the work order model and its lifecycle rules.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type distinguishes work done in-house from work done by a contractor.
type Type string

const (
	TypeInternal Type = "internal"
	TypeExternal Type = "external"
)

// OrderType records why a work order exists.
type OrderType string

const (
	OrderTypePlanned   OrderType = "planned"
	OrderTypeUnplanned OrderType = "unplanned"
	OrderTypeFollowUp  OrderType = "follow-up"
)

// State is a work order lifecycle state.
type State string

const (
	StateScheduled      State = "scheduled"
	StateBacklog        State = "backlog"
	StateAssigned       State = "assigned"
	StateOfferRequested State = "offer-requested"
	StateOfferReceived  State = "offer-received"
	StatePlanned        State = "planned"
	StateInProgress     State = "in-progress"
	StateCompleted      State = "completed"
	StateDone           State = "done"
	StateAborted        State = "aborted"
	StateObsolete       State = "obsolete"
)

// IsTerminal reports whether no further lifecycle events are accepted.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAborted || s == StateObsolete
}

// CompletionStatus tracks one asset's progress within a work order.
type CompletionStatus string

const (
	CompletionPending    CompletionStatus = "pending"
	CompletionInProgress CompletionStatus = "in-progress"
	CompletionCompleted  CompletionStatus = "completed"
)

// Valid reports whether s is a known completion status.
func (s CompletionStatus) Valid() bool {
	return s == CompletionPending || s == CompletionInProgress || s == CompletionCompleted
}

// LineItem is one target asset's completion record.
type LineItem struct {
	AssetID          uuid.UUID        `json:"assetId"`
	CompletionStatus CompletionStatus `json:"completionStatus"`
	ScheduledDate    *time.Time       `json:"scheduledDate,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
}

// Offer is a contractor quote on an external work order.
type Offer struct {
	CompanyID  uuid.UUID       `json:"companyId"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt time.Time       `json:"receivedAt"`
	Notes      string          `json:"notes,omitempty"`
}

// HistoryEntry records one accepted state change.
type HistoryEntry struct {
	State     State     `json:"state"`
	ChangedBy uuid.UUID `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}

// WorkOrder is one concrete unit of maintenance work.
type WorkOrder struct {
	ID                    uuid.UUID
	OrganizationID        uuid.UUID
	WorkOrderNumber       string
	Type                  Type
	OrderType             OrderType
	State                 State
	RuleID                *uuid.UUID
	Title                 string
	CompanyID             *uuid.UUID
	RequestedCompanyIDs   []uuid.UUID
	AssignedTo            *uuid.UUID
	ApprovalResponsibleID *uuid.UUID
	LeadTimeDays          int
	ScheduledStart        *time.Time
	ScheduledEnd          *time.Time
	ActualStart           *time.Time
	ActualEnd             *time.Time
	Offers                []Offer
	LineItems             []LineItem
	History               []HistoryEntry
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Clone returns a deep copy so lifecycle functions never alias the caller's slices.
func (w WorkOrder) Clone() WorkOrder {
	out := w
	out.RequestedCompanyIDs = slices.Clone(w.RequestedCompanyIDs)
	out.Offers = slices.Clone(w.Offers)
	out.LineItems = slices.Clone(w.LineItems)
	out.History = slices.Clone(w.History)
	return out
}

// AllLineItemsCompleted reports whether every line item is completed.
func (w WorkOrder) AllLineItemsCompleted() bool {
	for _, item := range w.LineItems {
		if item.CompletionStatus != CompletionCompleted {
			return false
		}
	}
	return true
}

// HasOfferFrom reports whether companyID has an offer on file.
func (w WorkOrder) HasOfferFrom(companyID uuid.UUID) bool {
	for _, o := range w.Offers {
		if o.CompanyID == companyID {
			return true
		}
	}
	return false
}

// ActivationDate is the day a scheduled order becomes actionable.
func (w WorkOrder) ActivationDate() (time.Time, bool) {
	if w.ScheduledStart == nil {
		return time.Time{}, false
	}
	return w.ScheduledStart.AddDate(0, 0, -w.LeadTimeDays), true
}

// ShouldActivate reports whether a scheduled order is due for the backlog at now.
func (w WorkOrder) ShouldActivate(now time.Time) bool {
	if w.State != StateScheduled {
		return false
	}
	activation, ok := w.ActivationDate()
	if !ok {
		return false
	}
	return !now.Before(activation)
}

// Activate moves a scheduled order into the backlog. It is a direct state
// assignment outside the lifecycle tables.
func Activate(w WorkOrder, by uuid.UUID, now time.Time) (WorkOrder, bool) {
	if !w.ShouldActivate(now) {
		return w, false
	}
	out := w.Clone()
	out.State = StateBacklog
	out.History = append(out.History, HistoryEntry{State: StateBacklog, ChangedBy: by, ChangedAt: now})
	out.UpdatedAt = now
	return out, true
}

// SetLineItemStatus changes one line item and stamps or clears CompletedAt.
func SetLineItemStatus(w WorkOrder, assetID uuid.UUID, status CompletionStatus, now time.Time) (WorkOrder, bool) {
	idx := slices.IndexFunc(w.LineItems, func(li LineItem) bool { return li.AssetID == assetID })
	if idx < 0 {
		return w, false
	}
	out := w.Clone()
	item := out.LineItems[idx]
	item.CompletionStatus = status
	if status == CompletionCompleted {
		at := now
		item.CompletedAt = &at
	} else {
		item.CompletedAt = nil
	}
	out.LineItems[idx] = item
	out.UpdatedAt = now
	return out, true
}
