// Package domain contains the maintenance rule model and the calendar
// arithmetic that drives scheduling.
package domain

import (
	"slices"
	"strings"
	"time"

	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
)

// WorkType classifies the maintenance a rule schedules.
type WorkType string

const (
	WorkTypeInspection  WorkType = "inspection"
	WorkTypePreventive  WorkType = "preventive"
	WorkTypeCalibration WorkType = "calibration"
	WorkTypeCleaning    WorkType = "cleaning"
	WorkTypeLubrication WorkType = "lubrication"
	WorkTypeSafetyCheck WorkType = "safety-check"
	WorkTypeCustom      WorkType = "custom"
)

// TargetType selects how a rule resolves its assets.
type TargetType string

const (
	TargetAsset TargetType = "asset"
	TargetKit   TargetType = "kit"
	TargetModel TargetType = "model"
	TargetTag   TargetType = "tag"
)

// Target is the single asset selector of a rule.
type Target struct {
	Type TargetType  `json:"type"`
	IDs  []uuid.UUID `json:"ids"`
}

// Equal reports whether both selectors resolve the same way.
func (t Target) Equal(other Target) bool {
	if t.Type != other.Type || len(t.IDs) != len(other.IDs) {
		return false
	}
	a := slices.Clone(t.IDs)
	b := slices.Clone(other.IDs)
	slices.SortFunc(a, compareUUID)
	slices.SortFunc(b, compareUUID)
	return slices.Equal(a, b)
}

func compareUUID(a, b uuid.UUID) int {
	return strings.Compare(a.String(), b.String())
}

// RescheduleMode decides which date a completion reschedules from.
type RescheduleMode string

const (
	// RescheduleActualCompletion anchors the next due date at the actual completion.
	RescheduleActualCompletion RescheduleMode = "actual-completion"
	// RescheduleReplanOnce anchors the next due date at the previous due date.
	RescheduleReplanOnce RescheduleMode = "replan-once"
)

// Rule is a recurring maintenance policy.
type Rule struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	Name              string
	WorkType          WorkType
	CustomWorkType    string
	IsInternal        bool
	ServiceProviderID *uuid.UUID
	Target            Target
	Interval          Interval
	StartDate         time.Time
	NextDueDate       time.Time
	LeadTimeDays      int
	RescheduleMode    RescheduleMode
	CreatedBy         uuid.UUID
	CreatedAt         time.Time
	UpdatedBy         uuid.UUID
	UpdatedAt         time.Time
}

// Validate checks the rule's cross-field invariants.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validation("name is required")
	}
	switch r.WorkType {
	case WorkTypeInspection, WorkTypePreventive, WorkTypeCalibration, WorkTypeCleaning,
		WorkTypeLubrication, WorkTypeSafetyCheck:
	case WorkTypeCustom:
		if strings.TrimSpace(r.CustomWorkType) == "" {
			return apperr.Validation("custom work type requires a label")
		}
	default:
		return apperr.Validation("unknown work type")
	}
	if !r.IsInternal && r.ServiceProviderID == nil {
		return apperr.Validation("external rules require a service provider")
	}
	switch r.Target.Type {
	case TargetAsset, TargetKit, TargetModel, TargetTag:
	default:
		return apperr.Validation("exactly one target selector is required")
	}
	if len(r.Target.IDs) == 0 {
		return apperr.Validation("target selector must reference at least one id")
	}
	switch r.Interval.Type {
	case IntervalDays, IntervalMonths, IntervalUses:
	default:
		return apperr.Validation("unknown interval type")
	}
	if r.Interval.Value <= 0 {
		return apperr.Validation("interval value must be greater than zero")
	}
	if r.LeadTimeDays < 0 {
		return apperr.Validation("lead time must not be negative")
	}
	if r.StartDate.IsZero() {
		return apperr.Validation("start date is required")
	}
	switch r.RescheduleMode {
	case RescheduleActualCompletion, RescheduleReplanOnce:
	default:
		return apperr.Validation("unknown reschedule mode")
	}
	return nil
}

// ScheduleChanged reports whether any field that shapes the generated
// schedule differs between before and after. IsInternal counts because
// generated orders mirror it in their type.
func ScheduleChanged(before, after Rule) bool {
	return before.Interval != after.Interval ||
		!DateOf(before.StartDate).Equal(DateOf(after.StartDate)) ||
		before.LeadTimeDays != after.LeadTimeDays ||
		before.IsInternal != after.IsInternal ||
		!before.Target.Equal(after.Target)
}

// RescheduleAnchor returns the date the next occurrence is computed from
// after a completion at actualEnd.
func (r Rule) RescheduleAnchor(actualEnd time.Time) time.Time {
	if r.RescheduleMode == RescheduleReplanOnce {
		return DateOf(r.NextDueDate)
	}
	return DateOf(actualEnd)
}

// NextDueAfterCompletion computes the rule's new next due date.
func (r Rule) NextDueAfterCompletion(actualEnd time.Time) (time.Time, error) {
	return r.Interval.Next(r.RescheduleAnchor(actualEnd))
}
