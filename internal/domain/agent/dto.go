// internal/domain/agent/dto.go
package agent

type CreateAgentRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	Email        string `json:"email" binding:"required,email,max=255"`
	MobileNumber string `json:"mobileNumber" binding:"required"`
	Password     string `json:"password" binding:"required,min=6"`
}

// UpdateAgentRequest fields are optional; nil leaves the column untouched.
type UpdateAgentRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=255"`
	Email        *string `json:"email" binding:"omitempty,email,max=255"`
	MobileNumber *string `json:"mobileNumber"`
	Password     *string `json:"password" binding:"omitempty,min=6"`
	IsActive     *bool   `json:"isActive"`
}

type AgentListResponse struct {
	Count  int     `json:"count"`
	Agents []Agent `json:"agents"`
}
