package transport

import (
	"time"

	holds "maintenance_backend/internal/holds/service"
	holdtransport "maintenance_backend/internal/holds/transport"
	"maintenance_backend/internal/plans/domain"

	"github.com/google/uuid"
)

// Action types accepted by POST /plans/current/actions.
const (
	ActionSetDetails   = "set-details"
	ActionSetSchedule  = "set-schedule"
	ActionAddAssets    = "add-assets"
	ActionRemoveAsset  = "remove-asset"
	ActionAdvanceStage = "advance-stage"
)

// PlanActionRequest is one plan change. Which fields are read depends on Type.
type PlanActionRequest struct {
	Type        string      `json:"type" validate:"required,oneof=set-details set-schedule add-assets remove-asset advance-stage"`
	Name        *string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Notes       *string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	HoldColor   string      `json:"holdColor,omitempty" validate:"omitempty,hexcolor"`
	AssetIDs    []uuid.UUID `json:"assetIds,omitempty" validate:"required_if=Type add-assets,omitempty,max=500,dive,required"`
	AssetID     *uuid.UUID  `json:"assetId,omitempty" validate:"required_if=Type remove-asset"`
	Stage       string      `json:"stage,omitempty" validate:"required_if=Type advance-stage,omitempty,oneof=draft planned completed"`
}

// AssetStatusRequest is the request body for POST /plans/current/assets/status.
type AssetStatusRequest struct {
	AssetIDs []uuid.UUID `json:"assetIds" validate:"required,min=1,max=500,dive,required"`
	Status   string      `json:"status" validate:"required,oneof=pending completed skipped"`
	Notes    *string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// PlanAssetResponse is one asset of a plan.
type PlanAssetResponse struct {
	AssetID         uuid.UUID  `json:"assetId"`
	AssetNumber     string     `json:"assetNumber"`
	AssetName       string     `json:"assetName"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	HoldID          *uuid.UUID `json:"holdId,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CompletedBy     *uuid.UUID `json:"completedBy,omitempty"`
	CompletedByName string     `json:"completedByName,omitempty"`
}

// PlanResponse is the API representation of a plan.
type PlanResponse struct {
	PlanID           string              `json:"planId,omitempty"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Notes            string              `json:"notes"`
	Stage            string              `json:"stage"`
	StartDate        *string             `json:"startDate,omitempty"`
	EndDate          *string             `json:"endDate,omitempty"`
	HoldColor        string              `json:"holdColor,omitempty"`
	Assets           []PlanAssetResponse `json:"assets"`
	StageWarnings    []string            `json:"stageWarnings"`
	LastTransitionAt *time.Time          `json:"lastTransitionAt,omitempty"`
	CompletedAt      *time.Time          `json:"completedAt,omitempty"`
	Holds            *HoldSyncResponse   `json:"holds,omitempty"`
}

// AssetStatusResponse reports a batch status change.
type AssetStatusResponse struct {
	Plan      PlanResponse `json:"plan"`
	Succeeded []uuid.UUID  `json:"succeeded"`
	Failed    []uuid.UUID  `json:"failed"`
	Errors    []string     `json:"errors"`
}

// SyncFailureResponse is one hold that could not be reconciled.
type SyncFailureResponse struct {
	AssetID uuid.UUID  `json:"assetId"`
	HoldID  *uuid.UUID `json:"holdId,omitempty"`
	Action  string     `json:"action"`
	Error   string     `json:"error"`
}

// HoldSyncResponse reports the holds a plan change created, released or
// failed to reconcile.
type HoldSyncResponse struct {
	Created  []holdtransport.HoldResponse `json:"created"`
	Released []holdtransport.HoldResponse `json:"released"`
	Failed   []SyncFailureResponse        `json:"failed"`
}

// SyncResponse reports a hold reconciliation.
type SyncResponse struct {
	Plan     PlanResponse                 `json:"plan"`
	Created  []holdtransport.HoldResponse `json:"created"`
	Released []holdtransport.HoldResponse `json:"released"`
	Failed   []SyncFailureResponse        `json:"failed"`
}

// Schedule builds the schedule carried by a set-schedule action.
func (r PlanActionRequest) Schedule() domain.Schedule {
	return domain.Schedule{
		StartDate: dateOnly(r.StartDate),
		EndDate:   dateOnly(r.EndDate),
		HoldColor: r.HoldColor,
	}
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

// ToResponse maps a plan to its API representation.
func ToResponse(p domain.Plan) PlanResponse {
	assets := make([]PlanAssetResponse, 0, len(p.Assets))
	for _, a := range p.Assets {
		assets = append(assets, PlanAssetResponse{
			AssetID:         a.AssetID,
			AssetNumber:     a.AssetNumber,
			AssetName:       a.AssetName,
			Status:          string(a.Status),
			Notes:           a.Notes,
			HoldID:          a.HoldID,
			CompletedAt:     a.CompletedAt,
			CompletedBy:     a.CompletedBy,
			CompletedByName: a.CompletedByName,
		})
	}
	warnings := p.StageWarnings
	if warnings == nil {
		warnings = []string{}
	}
	return PlanResponse{
		PlanID:           p.PlanID,
		Name:             p.Name,
		Description:      p.Description,
		Notes:            p.Notes,
		Stage:            string(p.Stage),
		StartDate:        formatDate(p.Schedule.StartDate),
		EndDate:          formatDate(p.Schedule.EndDate),
		HoldColor:        p.Schedule.HoldColor,
		Assets:           assets,
		StageWarnings:    warnings,
		LastTransitionAt: p.LastTransitionAt,
		CompletedAt:      p.CompletedAt,
	}
}

// ToChangeResponse maps a plan together with the reconciliation its change
// triggered. A nil result leaves Holds empty.
func ToChangeResponse(p domain.Plan, synced *holds.Result) PlanResponse {
	resp := ToResponse(p)
	if synced != nil {
		h := toHoldSync(*synced)
		resp.Holds = &h
	}
	return resp
}

// ToSyncResponse maps a reconciliation outcome.
func ToSyncResponse(p domain.Plan, result holds.Result) SyncResponse {
	h := toHoldSync(result)
	return SyncResponse{
		Plan:     ToResponse(p),
		Created:  h.Created,
		Released: h.Released,
		Failed:   h.Failed,
	}
}

func toHoldSync(result holds.Result) HoldSyncResponse {
	failed := make([]SyncFailureResponse, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, SyncFailureResponse{AssetID: f.AssetID, HoldID: f.HoldID, Action: f.Action, Error: f.Error})
	}
	return HoldSyncResponse{
		Created:  holdtransport.ToResponses(result.Created),
		Released: holdtransport.ToResponses(result.Released),
		Failed:   failed,
	}
}
