// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	"agentlist-service/internal/domain/agent"
	"agentlist-service/internal/domain/list"
	wstypes "agentlist-service/internal/domain/websocket"
	"agentlist-service/internal/metrics"
	"agentlist-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenValidator verifies a bearer token against its live session.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type Hub struct {
	// Registered clients by admin ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopOnce   sync.Once

	handlerRegistry *HandlerRegistry

	validator TokenValidator
	logger    *zap.Logger
}

type BroadcastMessage struct {
	// AdminIDs nil means every connected admin
	AdminIDs []int64
	Channel  wstypes.ChannelType
	Message  *wstypes.WSMessage
}

func NewHub(validator TokenValidator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[int64]map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(logger),
		validator:       validator,
		logger:          logger,
	}
}

// AuthenticateClient resolves the connecting admin from a dashboard token.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	return &ClientAuth{
		AdminID:   claims.AdminID,
		SessionID: claims.ID,
		Roles:     claims.Roles,
		Email:     claims.Email,
		Device:    claims.Device,
	}, nil
}

// RegisterHandler binds handler to its client events. Call before Run.
func (h *Hub) RegisterHandler(handler MessageHandler) error {
	return h.handlerRegistry.Register(handler)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// Register adds a client once Run picks it up.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client. It returns immediately after shutdown.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.adminID] == nil {
		h.clients[client.adminID] = make(map[*Client]bool)
	}
	h.clients[client.adminID][client] = true
	metrics.WebSocketClients.Inc()

	h.logger.Info("websocket client connected",
		zap.Int64("admin_id", client.adminID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"adminId":   client.adminID,
		"sessionId": client.sessionID,
		"roles":     client.roles,
		"device":    client.device,
		"channels":  wstypes.DefaultChannels,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.adminID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()
			metrics.WebSocketClients.Dec()

			if len(clients) == 0 {
				delete(h.clients, client.adminID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("admin_id", client.adminID),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

// BroadcastMessage delivers msg to subscribed clients. It runs on the hub
// goroutine; SendMessage never blocks.
func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.AdminIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
		return
	}

	for _, adminID := range msg.AdminIDs {
		for client := range h.clients[adminID] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// BroadcastUploadDistributed announces a stored batch on the uploads channel.
func (h *Hub) BroadcastUploadDistributed(result *list.UploadResult) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelUploads,
		Message: wstypes.NewMessage(wstypes.EventTypeUploadDistributed, result),
	})
}

// BroadcastAgentEvent announces an agent roster change on the agents channel.
func (h *Hub) BroadcastAgentEvent(event string, a *agent.Agent) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelAgents,
		Message: wstypes.NewMessage(wstypes.EventType(event), wstypes.AgentEventData{
			ID:       a.ID,
			Name:     a.Name,
			Email:    a.Email,
			IsActive: a.IsActive,
		}),
	})
}

// ForceLogout tells one admin's clients that a session ended.
func (h *Hub) ForceLogout(adminID int64, sessionID, reason string) {
	h.enqueue(&BroadcastMessage{
		AdminIDs: []int64{adminID},
		Channel:  wstypes.ChannelSystem,
		Message: wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
			SessionID: sessionID,
			Reason:    reason,
			Message:   "You have been logged out",
		}),
	})
}

// enqueue never blocks the caller; events are dropped when the queue is full.
func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event",
			zap.String("type", string(msg.Message.Type)),
		)
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for adminID, clients := range h.clients {
		for client := range clients {
			client.Close()
			metrics.WebSocketClients.Dec()
		}
		delete(h.clients, adminID)
	}
}
