package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"maintenance_backend/platform/config"
	"maintenance_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	errMissingToken = "missing token"
	errInvalidToken = "invalid token"

	accessTokenType = "access"
)

type ctxKey string

// UserNameKey is the request context key for the display name carried in the token.
const UserNameKey ctxKey = "user_name"

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// accessClaims is the payload of an access token issued by the identity service.
type accessClaims struct {
	jwt.RegisteredClaims
	Type     string   `json:"type"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	TenantID string   `json:"tenant_id,omitempty"`
}

// AuthRequired validates the bearer access token and stores the caller on the
// request. The user, tenant and name are also put on the request context so
// services and the logger can read them without Gin.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}

		p, err := parsePrincipal(raw, cfg.GetJWTAccessSecret())
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		setPrincipal(c, p)

		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, p.UserID.String())
		if p.Name != "" {
			ctx = context.WithValue(ctx, UserNameKey, p.Name)
		}
		if p.TenantID != nil {
			ctx = context.WithValue(ctx, logger.TenantIDKey, p.TenantID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole rejects callers without role. It must run after AuthRequired.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || !p.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

func parsePrincipal(raw, secret string) (*Principal, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods(hmacMethods), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Type != accessTokenType {
		return nil, errors.New("not an access token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}
	p := &Principal{UserID: userID, Name: strings.TrimSpace(claims.Name), Roles: claims.Roles}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	if tenant := strings.TrimSpace(claims.TenantID); tenant != "" {
		tenantID, err := uuid.Parse(tenant)
		if err != nil {
			return nil, err
		}
		p.TenantID = &tenantID
	}
	return p, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}
