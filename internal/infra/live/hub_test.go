package live

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsCuts(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	waitForClients(t, hub, 2)

	event := entity.CutEvent{JobID: "job-1", FrameIndex: 2, Timestamp: 0.0834166, Similarity: 0}
	hub.Broadcast(event)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got entity.CutEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, event, got)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	hub.Broadcast(entity.CutEvent{JobID: "job-1"})
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := &client{remote: "slow", send: make(chan entity.CutEvent, 1)}
	hub.clients[c] = struct{}{}

	hub.Broadcast(entity.CutEvent{FrameIndex: 1})
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(entity.CutEvent{FrameIndex: 2})
	assert.Equal(t, 0, hub.ClientCount())

	got, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, 1, got.FrameIndex)
	_, ok = <-c.send
	assert.False(t, ok, "send channel is closed on drop")
}
