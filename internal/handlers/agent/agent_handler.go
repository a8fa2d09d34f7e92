// internal/handlers/agent/agent_handler.go
package agent

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"agentlist-service/internal/domain/agent"
	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"
	"agentlist-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AgentService interface {
	CreateAgent(ctx context.Context, req *agent.CreateAgentRequest) (*agent.Agent, error)
	GetAgent(ctx context.Context, id int64) (*agent.Agent, error)
	ListAgents(ctx context.Context) (*agent.AgentListResponse, error)
	UpdateAgent(ctx context.Context, id int64, req *agent.UpdateAgentRequest) (*agent.Agent, error)
	DeleteAgent(ctx context.Context, id int64) error
}

// ListReader serves the per-agent list view.
type ListReader interface {
	AgentLists(ctx context.Context, agentID int64) (*list.AgentListsResponse, error)
}

type AgentHandler struct {
	agents AgentService
	lists  ListReader
	logger *zap.Logger
}

func NewAgentHandler(agents AgentService, lists ListReader, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agents: agents,
		lists:  lists,
		logger: logger,
	}
}

func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req agent.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	a, err := h.agents.CreateAgent(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, "create agent", err)
		return
	}

	response.Success(c, http.StatusCreated, "Agent created successfully", a)
}

func (h *AgentHandler) ListAgents(c *gin.Context) {
	resp, err := h.agents.ListAgents(c.Request.Context())
	if err != nil {
		h.handleError(c, "list agents", err)
		return
	}

	response.Success(c, http.StatusOK, "agents retrieved", resp)
}

func (h *AgentHandler) GetAgent(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}

	a, err := h.agents.GetAgent(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "get agent", err)
		return
	}

	response.Success(c, http.StatusOK, "agent retrieved", a)
}

func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}

	var req agent.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	a, err := h.agents.UpdateAgent(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, "update agent", err)
		return
	}

	response.Success(c, http.StatusOK, "Agent updated successfully", a)
}

func (h *AgentHandler) DeleteAgent(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}

	if err := h.agents.DeleteAgent(c.Request.Context(), id); err != nil {
		h.handleError(c, "delete agent", err)
		return
	}

	response.Success(c, http.StatusOK, "Agent deleted successfully", gin.H{})
}

// AgentLists returns every record distributed to one agent, grouped by upload.
func (h *AgentHandler) AgentLists(c *gin.Context) {
	id, ok := agentID(c)
	if !ok {
		return
	}

	if _, err := h.agents.GetAgent(c.Request.Context(), id); err != nil {
		h.handleError(c, "get agent", err)
		return
	}

	resp, err := h.lists.AgentLists(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "agent lists", err)
		return
	}

	response.Success(c, http.StatusOK, "agent lists retrieved", resp)
}

func agentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "invalid agent id", err)
		return 0, false
	}
	return id, true
}

func (h *AgentHandler) handleError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, "Agent not found")
	case errors.Is(err, xerrors.ErrDuplicateEntry):
		response.Error(c, http.StatusBadRequest, "Agent with this email already exists", nil)
	case errors.Is(err, xerrors.ErrInvalidInput):
		response.ValidationError(c, err.Error(), err)
	default:
		h.logger.Error("agent operation failed", zap.String("op", op), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Server error", nil)
	}
}
