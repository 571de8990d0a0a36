package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Action is a plan mutation. Every action that changes stage or asset state
// carries its own timestamp so the reducer never reads a clock.
type Action interface {
	apply(p Plan) Plan
}

// Reduce returns the plan after applying a. The input is not modified.
func Reduce(p Plan, a Action) Plan {
	if a == nil {
		return p
	}
	return a.apply(p.Clone())
}

// SetDetails edits descriptive fields. Nil fields are unchanged.
type SetDetails struct {
	Name        *string
	Description *string
	Notes       *string
}

func (a SetDetails) apply(p Plan) Plan {
	if a.Name != nil {
		p.Name = *a.Name
	}
	if a.Description != nil {
		p.Description = *a.Description
	}
	if a.Notes != nil {
		p.Notes = *a.Notes
	}
	return p
}

// SetSchedule replaces the schedule window and hold color. The window is kept
// as calendar dates (midnight UTC).
type SetSchedule struct {
	Schedule Schedule
	At       time.Time
}

func (a SetSchedule) apply(p Plan) Plan {
	p.Schedule = Schedule{
		StartDate: dateOf(a.Schedule.StartDate),
		EndDate:   dateOf(a.Schedule.EndDate),
		HoldColor: a.Schedule.HoldColor,
	}
	return settle(p, a.At)
}

func dateOf(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// AssetRef identifies an asset being added to a plan.
type AssetRef struct {
	AssetID     uuid.UUID
	AssetNumber string
	AssetName   string
}

// AddAssets appends assets as pending. Assets already in the plan are ignored.
type AddAssets struct {
	Assets []AssetRef
	At     time.Time
}

func (a AddAssets) apply(p Plan) Plan {
	for _, ref := range a.Assets {
		if _, exists := p.Asset(ref.AssetID); exists {
			continue
		}
		p.Assets = append(p.Assets, PlanAsset{
			AssetID:     ref.AssetID,
			AssetNumber: ref.AssetNumber,
			AssetName:   ref.AssetName,
			Status:      AssetPending,
		})
	}
	return settle(p, a.At)
}

// RemoveAsset drops one asset from the plan.
type RemoveAsset struct {
	AssetID uuid.UUID
	At      time.Time
}

func (a RemoveAsset) apply(p Plan) Plan {
	p.Assets = slices.DeleteFunc(p.Assets, func(pa PlanAsset) bool { return pa.AssetID == a.AssetID })
	return settle(p, a.At)
}

// MarkAssetCompleted records that an asset's maintenance was done.
type MarkAssetCompleted struct {
	AssetID uuid.UUID
	By      uuid.UUID
	ByName  string
	Notes   *string
	At      time.Time
}

func (a MarkAssetCompleted) apply(p Plan) Plan {
	return updateAsset(p, a.AssetID, a.At, func(pa *PlanAsset) {
		at := a.At
		by := a.By
		pa.Status = AssetCompleted
		pa.CompletedAt = &at
		pa.CompletedBy = &by
		pa.CompletedByName = a.ByName
		if a.Notes != nil {
			pa.Notes = *a.Notes
		}
	})
}

// MarkAssetSkipped records that an asset will not be maintained in this plan.
type MarkAssetSkipped struct {
	AssetID uuid.UUID
	Notes   *string
	At      time.Time
}

func (a MarkAssetSkipped) apply(p Plan) Plan {
	return updateAsset(p, a.AssetID, a.At, func(pa *PlanAsset) {
		pa.Status = AssetSkipped
		pa.CompletedAt = nil
		pa.CompletedBy = nil
		pa.CompletedByName = ""
		if a.Notes != nil {
			pa.Notes = *a.Notes
		}
	})
}

// MarkAssetPending puts an asset back to pending.
type MarkAssetPending struct {
	AssetID uuid.UUID
	At      time.Time
}

func (a MarkAssetPending) apply(p Plan) Plan {
	return updateAsset(p, a.AssetID, a.At, func(pa *PlanAsset) {
		pa.Status = AssetPending
		pa.CompletedAt = nil
		pa.CompletedBy = nil
		pa.CompletedByName = ""
	})
}

// AdvanceStage requests an explicit stage change. PlanID is the identifier
// to assign when the plan is planned for the first time; an existing PlanID
// is never replaced. Planning a plan whose assets are all done completes it.
type AdvanceStage struct {
	To     Stage
	PlanID string
	At     time.Time
}

func (a AdvanceStage) apply(p Plan) Plan {
	switch a.To {
	case StageDraft:
		if p.Stage == StageDraft {
			return p
		}
		p.CompletedAt = nil
		return transition(p, StageDraft, a.At, nil)

	case StagePlanned:
		if p.Stage == StagePlanned {
			return p
		}
		if guards := p.PlannedGuards(); len(guards) > 0 {
			p.StageWarnings = guards
			return p
		}
		if p.PlanID == "" {
			p.PlanID = a.PlanID
		}
		if p.AllAssetsDone() {
			if p.Stage == StageCompleted {
				return p
			}
			return complete(p, a.At)
		}
		p.CompletedAt = nil
		return transition(p, StagePlanned, a.At, nil)

	case StageCompleted:
		switch {
		case p.Stage == StageCompleted:
			return p
		case p.Stage != StagePlanned:
			p.StageWarnings = []string{WarnNotPlanned}
			return p
		case !p.AllAssetsDone():
			p.StageWarnings = []string{WarnAssetsIncomplete}
			return p
		}
		return complete(p, a.At)

	default:
		p.StageWarnings = []string{WarnUnknownStage}
		return p
	}
}

// HoldRef links a created calendar hold to its asset.
type HoldRef struct {
	AssetID uuid.UUID
	HoldID  uuid.UUID
}

// ApplyHoldResults folds a hold reconciliation into the plan: released hold
// IDs are cleared from their assets, then created holds are attached.
type ApplyHoldResults struct {
	Created  []HoldRef
	Released []uuid.UUID
}

func (a ApplyHoldResults) apply(p Plan) Plan {
	for i := range p.Assets {
		if p.Assets[i].HoldID != nil && slices.Contains(a.Released, *p.Assets[i].HoldID) {
			p.Assets[i].HoldID = nil
		}
	}
	for _, ref := range a.Created {
		for i := range p.Assets {
			if p.Assets[i].AssetID == ref.AssetID {
				id := ref.HoldID
				p.Assets[i].HoldID = &id
			}
		}
	}
	return p
}

// Reset discards the plan.
type Reset struct{}

func (Reset) apply(Plan) Plan {
	return New()
}

func updateAsset(p Plan, assetID uuid.UUID, at time.Time, fn func(*PlanAsset)) Plan {
	for i := range p.Assets {
		if p.Assets[i].AssetID == assetID {
			fn(&p.Assets[i])
			return settle(p, at)
		}
	}
	return p
}

// settle restores the stage invariants after a schedule or asset change: a
// plan past draft that lost a requirement drops back to draft, a planned plan
// with every asset done completes, and a completed plan with a pending asset
// returns to planned.
func settle(p Plan, at time.Time) Plan {
	if p.Stage == StageDraft {
		return p
	}
	if guards := p.PlannedGuards(); len(guards) > 0 {
		p.CompletedAt = nil
		return transition(p, StageDraft, at, guards)
	}
	switch {
	case p.Stage == StagePlanned && p.AllAssetsDone():
		return complete(p, at)
	case p.Stage == StageCompleted && !p.AllAssetsDone():
		p.CompletedAt = nil
		return transition(p, StagePlanned, at, []string{WarnAssetsIncomplete})
	}
	return p
}

func complete(p Plan, at time.Time) Plan {
	stamp := at
	p.CompletedAt = &stamp
	return transition(p, StageCompleted, at, nil)
}

func transition(p Plan, to Stage, at time.Time, warnings []string) Plan {
	stamp := at
	p.Stage = to
	p.LastTransitionAt = &stamp
	if warnings == nil {
		warnings = []string{}
	}
	p.StageWarnings = warnings
	return p
}
