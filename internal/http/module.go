// Package http holds what the router and the domain modules share: the
// Module contract, the route groups handed to modules and the App container
// built by the composition root.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's handlers.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is the set of route groups a module may mount on. Every
// group already runs request logging and rate limiting.
type RouterContext struct {
	// Public is /api/v1 without authentication.
	Public *gin.RouterGroup
	// Protected is /api/v1 behind AuthRequired.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, restricted to the admin role.
	Admin *gin.RouterGroup
}
