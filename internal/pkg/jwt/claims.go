// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

const PurposeAccess = "access"

// AdminRoles may sign in to the dashboard.
var AdminRoles = []string{"admin", "super_admin"}

// Claims represents the JWT claims of an admin token
type Claims struct {
	AdminID int64    `json:"admin_id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles,omitempty"`
	Device  string   `json:"device,omitempty"`
	Purpose string   `json:"purpose"`
	jwt.RegisteredClaims
}

// HasRole checks if the claims contain a specific role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the claims contain any of the given roles
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

func (c *Claims) IsAdmin() bool {
	return c.HasAnyRole(AdminRoles...)
}
