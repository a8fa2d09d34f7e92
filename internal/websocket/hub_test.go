package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agentlist-service/internal/domain/agent"
	"agentlist-service/internal/domain/list"
	wstypes "agentlist-service/internal/domain/websocket"
	"agentlist-service/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeValidator map[string]*jwt.Claims

func (f fakeValidator) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func newTestHub() *Hub {
	admin := &jwt.Claims{AdminID: 1, Email: "root@x.io", Roles: []string{"admin"}}
	admin.ID = "jti-1"
	return NewHub(fakeValidator{"admin": admin}, zap.NewNop())
}

func newTestClient(h *Hub, adminID int64) *Client {
	return NewClient(h, nil, &ClientAuth{AdminID: adminID, SessionID: "s", Roles: []string{"admin"}})
}

func next(t *testing.T, c *Client) *wstypes.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg wstypes.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return nil
	}
}

func requireEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

func TestHub_AuthenticateClient(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()

	auth, err := h.AuthenticateClient(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, int64(1), auth.AdminID)
	require.Equal(t, "jti-1", auth.SessionID)
	require.Equal(t, "root@x.io", auth.Email)

	_, err = h.AuthenticateClient(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestHub_Broadcast(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h, 1)
	b := newTestClient(h, 2)
	h.registerClient(a)
	h.registerClient(b)

	require.Equal(t, wstypes.EventTypeConnected, next(t, a).Type)
	require.Equal(t, wstypes.EventTypeConnected, next(t, b).Type)
	require.Equal(t, 2, h.TotalClients())

	b.Unsubscribe(wstypes.ChannelUploads)

	h.BroadcastMessage(&BroadcastMessage{
		Channel: wstypes.ChannelUploads,
		Message: wstypes.NewMessage(wstypes.EventTypeUploadDistributed, &list.UploadResult{UploadID: "u-1"}),
	})

	msg := next(t, a)
	require.Equal(t, wstypes.EventTypeUploadDistributed, msg.Type)
	requireEmpty(t, b)

	t.Run("targeted messages reach only that admin", func(t *testing.T) {
		h.BroadcastMessage(&BroadcastMessage{
			AdminIDs: []int64{2},
			Channel:  wstypes.ChannelSystem,
			Message:  wstypes.NewMessage(wstypes.EventTypeForceLogout, nil),
		})

		require.Equal(t, wstypes.EventTypeForceLogout, next(t, b).Type)
		requireEmpty(t, a)
	})

	t.Run("unregister", func(t *testing.T) {
		h.unregisterClient(a)
		require.Equal(t, 1, h.TotalClients())
		require.Error(t, a.ctx.Err())
	})
}

func TestHub_Run(t *testing.T) {
	h := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := newTestClient(h, 1)
	h.Register(c)
	require.Equal(t, wstypes.EventTypeConnected, next(t, c).Type)

	h.BroadcastAgentEvent(string(wstypes.EventTypeAgentCreated), &agent.Agent{ID: 4, Name: "Ann", PasswordHash: "secret"})

	msg := next(t, c)
	require.Equal(t, wstypes.EventTypeAgentCreated, msg.Type)
	var data wstypes.AgentEventData
	require.NoError(t, msg.DecodeData(&data))
	require.Equal(t, wstypes.AgentEventData{ID: 4, Name: "Ann"}, data)

	cancel()
	<-done
	require.Zero(t, h.TotalClients())
	require.Error(t, c.ctx.Err())

	// After shutdown these must not block.
	h.Unregister(c)
	h.Register(newTestClient(h, 3))
}

func TestClient_SendMessage(t *testing.T) {
	t.Run("after close is dropped", func(t *testing.T) {
		c := newTestClient(newTestHub(), 1)
		c.Close()
		c.Close()

		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))
		requireEmpty(t, c)
	})

	t.Run("slow clients are cut off", func(t *testing.T) {
		c := newTestClient(newTestHub(), 1)
		for i := 0; i < sendBuffer; i++ {
			c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))
		}
		require.NoError(t, c.ctx.Err())

		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))
		require.Error(t, c.ctx.Err())
	})
}

func TestClient_HandleMessage(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h, 1)

	t.Run("ping", func(t *testing.T) {
		c.handleMessage([]byte(`{"type":"ping"}`))
		require.Equal(t, wstypes.EventTypePong, next(t, c).Type)
	})

	t.Run("subscribe ignores unknown channels", func(t *testing.T) {
		c.Unsubscribe(wstypes.ChannelAgents)
		c.handleMessage([]byte(`{"type":"subscribe","data":{"channels":["agents","secrets"]}}`))

		msg := next(t, c)
		var data struct {
			Channels []wstypes.ChannelType `json:"channels"`
		}
		require.NoError(t, msg.DecodeData(&data))
		require.Equal(t, []wstypes.ChannelType{wstypes.ChannelAgents}, data.Channels)
		require.True(t, c.IsSubscribed(wstypes.ChannelAgents))
		require.False(t, c.IsSubscribed("secrets"))
	})

	t.Run("garbage", func(t *testing.T) {
		c.handleMessage([]byte(`{`))
		require.Equal(t, wstypes.EventTypeError, next(t, c).Type)
	})

	t.Run("unknown event", func(t *testing.T) {
		c.handleMessage([]byte(`{"type":"wallet:topup"}`))
		require.Equal(t, wstypes.EventTypeError, next(t, c).Type)
	})
}
