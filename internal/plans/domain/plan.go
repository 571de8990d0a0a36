// Package domain holds the maintenance plan model and its stage machine.
// Everything here is pure: no I/O, no clock.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the plan's lifecycle position.
type Stage string

const (
	StageDraft     Stage = "draft"
	StagePlanned   Stage = "planned"
	StageCompleted Stage = "completed"
)

// AssetStatus is the per-asset progress within a plan.
type AssetStatus string

const (
	AssetPending   AssetStatus = "pending"
	AssetCompleted AssetStatus = "completed"
	AssetSkipped   AssetStatus = "skipped"
)

// Valid reports whether s is a known status.
func (s AssetStatus) Valid() bool {
	return s == AssetPending || s == AssetCompleted || s == AssetSkipped
}

// Done reports whether the asset no longer blocks completion.
func (s AssetStatus) Done() bool {
	return s == AssetCompleted || s == AssetSkipped
}

// Stage warnings. They are values rather than errors: a blocked stage change
// leaves the plan where it is and lists the reasons.
const (
	WarnStartDateRequired = "start date is required"
	WarnEndDateRequired   = "end date is required"
	WarnEndBeforeStart    = "end date must not be before start date"
	WarnAssetsRequired    = "at least one asset is required"
	WarnAssetsIncomplete  = "all assets must be completed or skipped"
	WarnNotPlanned        = "plan must be planned before it can be completed"
	WarnUnknownStage      = "unknown stage"
)

// Schedule is the window the plan's assets are reserved for.
type Schedule struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	HoldColor string     `json:"holdColor,omitempty"`
}

// PlanAsset is one asset in a plan.
type PlanAsset struct {
	AssetID         uuid.UUID   `json:"assetId"`
	AssetNumber     string      `json:"assetNumber"`
	AssetName       string      `json:"assetName"`
	Status          AssetStatus `json:"status"`
	Notes           string      `json:"notes,omitempty"`
	HoldID          *uuid.UUID  `json:"holdId,omitempty"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
	CompletedBy     *uuid.UUID  `json:"completedBy,omitempty"`
	CompletedByName string      `json:"completedByName,omitempty"`
}

// Plan is the caller-owned maintenance plan being worked on.
type Plan struct {
	PlanID           string      `json:"planId,omitempty"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Notes            string      `json:"notes"`
	Stage            Stage       `json:"stage"`
	Schedule         Schedule    `json:"schedule"`
	Assets           []PlanAsset `json:"assets"`
	StageWarnings    []string    `json:"stageWarnings"`
	LastTransitionAt *time.Time  `json:"lastTransitionAt,omitempty"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

// New returns an empty draft plan.
func New() Plan {
	return Plan{Stage: StageDraft, Assets: []PlanAsset{}, StageWarnings: []string{}}
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	out := p
	out.Schedule.StartDate = cloneTime(p.Schedule.StartDate)
	out.Schedule.EndDate = cloneTime(p.Schedule.EndDate)
	out.LastTransitionAt = cloneTime(p.LastTransitionAt)
	out.CompletedAt = cloneTime(p.CompletedAt)
	out.StageWarnings = append([]string{}, p.StageWarnings...)
	out.Assets = make([]PlanAsset, len(p.Assets))
	for i, a := range p.Assets {
		a.HoldID = cloneID(a.HoldID)
		a.CompletedAt = cloneTime(a.CompletedAt)
		a.CompletedBy = cloneID(a.CompletedBy)
		out.Assets[i] = a
	}
	return out
}

// Asset returns the plan asset with the given ID.
func (p Plan) Asset(assetID uuid.UUID) (PlanAsset, bool) {
	for _, a := range p.Assets {
		if a.AssetID == assetID {
			return a, true
		}
	}
	return PlanAsset{}, false
}

// AllAssetsDone reports whether the plan has assets and none is pending.
func (p Plan) AllAssetsDone() bool {
	if len(p.Assets) == 0 {
		return false
	}
	for _, a := range p.Assets {
		if !a.Status.Done() {
			return false
		}
	}
	return true
}

// PlannedGuards lists what keeps the plan from being planned. Empty means
// the plan may be planned.
func (p Plan) PlannedGuards() []string {
	warnings := []string{}
	if p.Schedule.StartDate == nil {
		warnings = append(warnings, WarnStartDateRequired)
	}
	if p.Schedule.EndDate == nil {
		warnings = append(warnings, WarnEndDateRequired)
	}
	if p.Schedule.StartDate != nil && p.Schedule.EndDate != nil && p.Schedule.EndDate.Before(*p.Schedule.StartDate) {
		warnings = append(warnings, WarnEndBeforeStart)
	}
	if len(p.Assets) == 0 {
		warnings = append(warnings, WarnAssetsRequired)
	}
	return warnings
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
