// Package plans provides the maintenance plan module: the caller's working
// plan, its stage machine and calendar hold reconciliation.
package plans

import (
	"time"

	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/internal/plans/handler"
	"maintenance_backend/internal/plans/service"
	"maintenance_backend/internal/plans/store"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module represents the maintenance plans domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new plans module with all dependencies wired
func NewModule(
	rdb *redis.Client,
	snapshotTTL time.Duration,
	val *validator.Validator,
	assets service.AssetLookup,
	holdSyncer service.HoldSyncer,
	userProvider users.Provider,
	log *logger.Logger,
) *Module {
	svc := service.New(store.New(rdb, snapshotTTL), assets, holdSyncer, userProvider, log)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "plans"
}

// RegisterRoutes registers the module's routes under /api/v1/plans
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	plans := ctx.Protected.Group("/plans")
	m.handler.RegisterRoutes(plans)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
