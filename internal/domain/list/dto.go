// internal/domain/list/dto.go
package list

import "time"

// UploadResult is returned after a successful upload.
type UploadResult struct {
	TotalRecords int          `json:"totalRecords"`
	AgentsCount  int          `json:"agentsCount"`
	UploadID     string       `json:"uploadId"`
	Distribution []AgentShare `json:"distribution"`
}

// AgentGroup holds one agent's records inside an upload, in distribution order.
type AgentGroup struct {
	AgentName  string  `json:"agentName"`
	AgentEmail string  `json:"agentEmail"`
	Records    []Entry `json:"records"`
}

// UploadGroup is one upload batch regrouped by agent. Agents is keyed by
// agent id; its iteration order carries no meaning.
type UploadGroup struct {
	UploadID     string                 `json:"uploadId"`
	UploadDate   time.Time              `json:"uploadDate"`
	TotalRecords int                    `json:"totalRecords"`
	Agents       map[string]*AgentGroup `json:"agents"`
}

// UploadListResponse wraps the by-upload view.
type UploadListResponse struct {
	Count   int           `json:"count"`
	Uploads []UploadGroup `json:"uploads"`
}

// AgentUploads is one agent's share of a single upload.
type AgentUploads struct {
	UploadID   string    `json:"uploadId"`
	UploadDate time.Time `json:"uploadDate"`
	AgentName  string    `json:"agentName"`
	Records    []Entry   `json:"records"`
}

// AgentListsResponse wraps the by-agent view.
type AgentListsResponse struct {
	AgentID      int64          `json:"agentId"`
	TotalRecords int            `json:"totalRecords"`
	Uploads      []AgentUploads `json:"uploads"`
}

type Stats struct {
	TotalUploads      int64 `json:"totalUploads"`
	TotalRecords      int64 `json:"totalRecords"`
	AgentsWithRecords int64 `json:"agentsWithRecords"`
}

// GetUploadRequest is the websocket payload for fetching one upload.
type GetUploadRequest struct {
	UploadID string `json:"uploadId"`
}
