// internal/domain/agent/entity.go
package agent

import (
	"strconv"
	"time"
)

type Agent struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	MobileNumber string    `json:"mobileNumber" db:"mobile_number"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Key is the agent id in the string form used for JSON map keys.
func (a *Agent) Key() string {
	return strconv.FormatInt(a.ID, 10)
}
