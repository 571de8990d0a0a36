package adapters

import (
	"context"

	"maintenance_backend/internal/assets"
	plansdomain "maintenance_backend/internal/plans/domain"
	plansservice "maintenance_backend/internal/plans/service"

	"github.com/google/uuid"
)

// PlanAssetLookup adapts the asset register for adding assets to a plan.
type PlanAssetLookup struct {
	repo *assets.Repository
}

func NewPlanAssetLookup(repo *assets.Repository) *PlanAssetLookup {
	return &PlanAssetLookup{repo: repo}
}

// LookupAssets returns display data for the known assets among ids.
func (a *PlanAssetLookup) LookupAssets(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]plansdomain.AssetRef, error) {
	found, err := a.repo.GetByIDs(ctx, organizationID, ids)
	if err != nil {
		return nil, err
	}
	refs := make([]plansdomain.AssetRef, 0, len(found))
	for _, asset := range found {
		refs = append(refs, plansdomain.AssetRef{
			AssetID:     asset.ID,
			AssetNumber: asset.AssetNumber,
			AssetName:   asset.Name,
		})
	}
	return refs, nil
}

// Compile-time check.
var _ plansservice.AssetLookup = (*PlanAssetLookup)(nil)
