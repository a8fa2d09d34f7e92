// internal/pkg/session/types.go
package session

import "time"

// SessionData is what Redis keeps for one issued admin token.
type SessionData struct {
	JTI            string    `json:"jti"`
	AdminID        int64     `json:"admin_id"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	Device         string    `json:"device,omitempty"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
