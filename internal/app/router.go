// internal/app/router.go
package app

import (
	"context"
	"net/http"

	agentHandler "agentlist-service/internal/handlers/agent"
	authHandler "agentlist-service/internal/handlers/auth"
	listHandler "agentlist-service/internal/handlers/list"
	wsHandler "agentlist-service/internal/handlers/websocket"
	"agentlist-service/internal/middleware"
	"agentlist-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports the status of each backing store; "ok" means healthy.
type HealthFunc func(ctx context.Context) map[string]string

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	AgentHandler   *agentHandler.AgentHandler
	ListHandler    *listHandler.ListHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
	Health         HealthFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		checks := map[string]string{}
		if h.Health != nil {
			checks = h.Health(c.Request.Context())
		}
		for _, v := range checks {
			if v != "ok" {
				response.Error(c, http.StatusServiceUnavailable, "degraded", nil, checks)
				return
			}
		}
		response.Success(c, http.StatusOK, "ok", checks)
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	api.POST("/auth/login", h.AuthHandler.Login)

	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/me", h.AuthHandler.Me)
		authProtected.POST("/logout", h.AuthHandler.Logout)
	}

	// ==================== Agents (admin) ====================
	agents := api.Group("/agents")
	agents.Use(h.AuthMiddleware.AdminOnly()...)
	{
		agents.GET("", h.AgentHandler.ListAgents)
		agents.POST("", h.AgentHandler.CreateAgent)
		agents.GET("/:id", h.AgentHandler.GetAgent)
		agents.PUT("/:id", h.AgentHandler.UpdateAgent)
		agents.DELETE("/:id", h.AgentHandler.DeleteAgent)
		agents.GET("/:id/lists", h.AgentHandler.AgentLists)
	}

	// ==================== Lists (admin) ====================
	lists := api.Group("/lists")
	lists.Use(h.AuthMiddleware.AdminOnly()...)
	{
		lists.GET("", h.ListHandler.ListUploads)
		lists.GET("/stats", h.ListHandler.Stats)
		lists.POST("/upload", h.ListHandler.Upload)
		lists.GET("/upload/:uploadId", h.ListHandler.GetUpload)
	}

	// ==================== Realtime (admin) ====================
	ws := api.Group("/ws")
	ws.Use(h.AuthMiddleware.AdminOnly()...)
	ws.GET("/stats", h.WSHandler.GetStats)
}
