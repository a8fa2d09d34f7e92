// internal/websocket/handler.go
package websocket

import (
	"context"
	"fmt"

	wstypes "agentlist-service/internal/domain/websocket"

	"go.uber.org/zap"
)

// MessageHandler serves client events beyond ping and channel subscription.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// reservedEvents are answered by the client itself and cannot be rebound.
var reservedEvents = map[wstypes.EventType]bool{
	wstypes.EventTypePing:        true,
	wstypes.EventTypeSubscribe:   true,
	wstypes.EventTypeUnsubscribe: true,
}

// HandlerRegistry binds client event types to handlers. Registration
// happens before Run; dispatch only reads the map.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
	logger   *zap.Logger
}

func NewHandlerRegistry(logger *zap.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
		logger:   logger,
	}
}

// Register binds every event handler supports, or none of them when one is
// reserved or already bound.
func (r *HandlerRegistry) Register(handler MessageHandler) error {
	events := handler.SupportedEvents()
	for _, ev := range events {
		if reservedEvents[ev] {
			return fmt.Errorf("websocket event %q is reserved", ev)
		}
		if _, taken := r.handlers[ev]; taken {
			return fmt.Errorf("websocket event %q already has a handler", ev)
		}
	}
	for _, ev := range events {
		r.handlers[ev] = handler
	}
	return nil
}

// Dispatch runs the handler bound to msg.Type and reports whether one was
// bound. A handler error is logged; the client only sees a generic error
// frame so storage details stay on the server.
func (r *HandlerRegistry) Dispatch(ctx context.Context, client *Client, msg *wstypes.WSMessage) bool {
	handler, ok := r.handlers[msg.Type]
	if !ok {
		return false
	}

	if err := handler.HandleMessage(ctx, client, msg); err != nil {
		r.logger.Error("websocket handler failed",
			zap.String("event", string(msg.Type)),
			zap.Int64("admin_id", client.AdminID()),
			zap.Error(err),
		)
		client.SendError("handler_error", "Failed to process message", "")
	}
	return true
}
