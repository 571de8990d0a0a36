package adapters

import (
	"context"

	"maintenance_backend/internal/assets"
	rulesdomain "maintenance_backend/internal/rules/domain"
	rulesservice "maintenance_backend/internal/rules/service"

	"github.com/google/uuid"
)

// RuleAssetResolver adapts the asset register for rule target resolution.
type RuleAssetResolver struct {
	repo *assets.Repository
}

func NewRuleAssetResolver(repo *assets.Repository) *RuleAssetResolver {
	return &RuleAssetResolver{repo: repo}
}

// ResolveTargets expands a rule target into asset IDs.
func (a *RuleAssetResolver) ResolveTargets(ctx context.Context, organizationID uuid.UUID, target rulesdomain.Target) ([]uuid.UUID, error) {
	return a.repo.Resolve(ctx, organizationID, assets.Selector{
		Type: assets.SelectorType(target.Type),
		IDs:  target.IDs,
	})
}

// Compile-time check.
var _ rulesservice.AssetResolver = (*RuleAssetResolver)(nil)
