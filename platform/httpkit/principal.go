package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const principalKey = "httpkit.principal"

// Principal is the authenticated caller as carried by the access token.
type Principal struct {
	UserID   uuid.UUID
	Name     string
	Roles    []string
	TenantID *uuid.UUID
}

// HasRole reports whether the caller holds role.
func (p *Principal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}

func setPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller stored by AuthRequired.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	raw, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := raw.(*Principal)
	return p, ok && p != nil
}

// MustGetTenant returns the caller and its organization. Unauthenticated
// requests are rejected with 401, requests without an organization claim
// with 403.
func MustGetTenant(c *gin.Context) (*Principal, uuid.UUID, bool) {
	p, ok := PrincipalFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil, uuid.Nil, false
	}
	if p.TenantID == nil {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "organization required"})
		return nil, uuid.Nil, false
	}
	return p, *p.TenantID, true
}
