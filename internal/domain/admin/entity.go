// internal/domain/admin/entity.go
package admin

import (
	"time"

	"github.com/lib/pq"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type Admin struct {
	ID           int64          `json:"id" db:"id"`
	FullName     string         `json:"fullName" db:"full_name"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Roles        pq.StringArray `json:"roles" db:"roles"`
	IsActive     bool           `json:"isActive" db:"is_active"`
	LastLogin    *time.Time     `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// CanUseDashboard reports whether a holds a role the dashboard accepts.
func (a *Admin) CanUseDashboard() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin || r == RoleSuperAdmin {
			return true
		}
	}
	return false
}

// Info strips credentials for API responses.
func (a *Admin) Info() AdminInfo {
	return AdminInfo{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		Roles:     []string(a.Roles),
		IsActive:  a.IsActive,
		LastLogin: a.LastLogin,
	}
}
