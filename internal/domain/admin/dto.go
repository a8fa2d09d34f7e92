// internal/domain/admin/dto.go
package admin

import "time"

// LoginRequest represents admin login credentials
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Device    string `json:"device,omitempty"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse represents successful login data
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      AdminInfo `json:"user"`
}

// AdminInfo represents public admin information
type AdminInfo struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Roles     []string   `json:"roles"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}
