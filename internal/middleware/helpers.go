// internal/middleware/helpers.go
package middleware

import (
	"context"

	"agentlist-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying verified token claims.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok && claims != nil
}

// GetAdminID gets the authenticated admin id from the request
func GetAdminID(c *gin.Context) (int64, bool) {
	claims, ok := ClaimsFromContext(c.Request.Context())
	if !ok {
		return 0, false
	}
	return claims.AdminID, true
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, ok := ClaimsFromContext(c.Request.Context())
	return ok
}
