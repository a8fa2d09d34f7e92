// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager keeps admin sessions and revoked token ids in Redis. A token is
// only honoured while its session key exists.
type Manager struct {
	client *redis.Client
	logger *zap.Logger
}

func NewManager(client *redis.Client, logger *zap.Logger) *Manager {
	return &Manager{
		client: client,
		logger: logger,
	}
}

// CreateSession stores a new session until the token expires.
func (m *Manager) CreateSession(ctx context.Context, session *SessionData) error {
	key := m.sessionKey(session.AdminID, session.JTI)

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := m.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}

	return nil
}

// GetSession returns the stored session or ErrSessionExpired when it is gone.
func (m *Manager) GetSession(ctx context.Context, adminID int64, jti string) (*SessionData, error) {
	key := m.sessionKey(adminID, jti)

	data, err := m.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// Touch records activity on a live session without extending it.
func (m *Manager) Touch(ctx context.Context, session *SessionData) {
	session.LastActivityAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return
	}

	key := m.sessionKey(session.AdminID, session.JTI)
	if err := m.client.Set(ctx, key, data, redis.KeepTTL).Err(); err != nil {
		m.logger.Warn("failed to update session activity",
			zap.Int64("admin_id", session.AdminID),
			zap.Error(err),
		)
	}
}

// InvalidateSession removes one session.
func (m *Manager) InvalidateSession(ctx context.Context, adminID int64, jti string) error {
	if err := m.client.Del(ctx, m.sessionKey(adminID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// InvalidateAllSessions removes every session of one admin.
func (m *Manager) InvalidateAllSessions(ctx context.Context, adminID int64) error {
	pattern := fmt.Sprintf("session:%d:*", adminID)

	iter := m.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			m.logger.Warn("failed to delete session", zap.String("key", iter.Val()), zap.Error(err))
		}
	}

	return iter.Err()
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err()
}

func (m *Manager) sessionKey(adminID int64, jti string) string {
	return fmt.Sprintf("session:%d:%s", adminID, jti)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
