// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Upload events
	EventTypeUploadDistributed EventType = "upload:distributed"
	EventTypeUploadGet         EventType = "upload:get"
	EventTypeUploadDetail      EventType = "upload:detail"

	// Agent roster events
	EventTypeAgentCreated EventType = "agent:created"
	EventTypeAgentUpdated EventType = "agent:updated"
	EventTypeAgentDeleted EventType = "agent:deleted"

	// Session events
	EventTypeForceLogout EventType = "session:force_logout"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// ChannelType names a stream clients can subscribe to
type ChannelType string

const (
	ChannelUploads ChannelType = "uploads"
	ChannelAgents  ChannelType = "agents"
	ChannelSystem  ChannelType = "system"
)

// DefaultChannels are subscribed on connect.
var DefaultChannels = []ChannelType{ChannelUploads, ChannelAgents, ChannelSystem}

// ValidChannel reports whether ch is a known channel.
func ValidChannel(ch ChannelType) bool {
	switch ch {
	case ChannelUploads, ChannelAgents, ChannelSystem:
		return true
	}
	return false
}

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// AgentEventData is broadcast on agent roster changes. Password hashes never
// leave the server.
type AgentEventData struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

// SessionEventData for session events
type SessionEventData struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

// NewMessage builds a timestamped message with a fresh id.
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}

// DecodeData unmarshals the message payload into target.
func (m *WSMessage) DecodeData(target interface{}) error {
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
