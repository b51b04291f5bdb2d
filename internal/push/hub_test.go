package push

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collabolab/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(logger.NewNop())
	r := gin.New()
	r.GET("/ws", hub.ServeWS)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, token string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Connected(token) }, time.Second, 10*time.Millisecond)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHub_SendToDevice(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, hub, srv, "device-a")

	err := hub.Send(context.Background(), "device-a", Message{Title: "New Task", Body: "hello"})
	require.NoError(t, err)

	env := readEnvelope(t, conn)
	assert.Equal(t, "New Task", env.Title)
	assert.Equal(t, "hello", env.Body)
	assert.Empty(t, env.Topic)
}

func TestHub_SendNotConnected(t *testing.T) {
	hub := NewHub(logger.NewNop())

	err := hub.Send(context.Background(), "nobody", Message{Title: "x"})

	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestHub_SendToTopic(t *testing.T) {
	hub, srv := newTestServer(t)
	a := dial(t, hub, srv, "device-a")
	b := dial(t, hub, srv, "device-b")
	ctx := context.Background()

	require.NoError(t, hub.Subscribe(ctx, "device-a", "project-1"))
	require.NoError(t, hub.Subscribe(ctx, "device-b", "project-1"))
	require.NoError(t, hub.Subscribe(ctx, "offline", "project-1"))

	err := hub.SendToTopic(ctx, "project-1", Message{Title: "New message in Alpha", Body: "Ann sent a new message"})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{a, b} {
		env := readEnvelope(t, conn)
		assert.Equal(t, "project-1", env.Topic)
		assert.Equal(t, "New message in Alpha", env.Title)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx := context.Background()

	require.NoError(t, hub.Subscribe(ctx, "device-a", "project-1"))
	assert.True(t, hub.Subscribed("device-a", "project-1"))

	require.NoError(t, hub.Unsubscribe(ctx, "device-a", "project-1"))
	assert.False(t, hub.Subscribed("device-a", "project-1"))

	// unknown pairs are ignored
	assert.NoError(t, hub.Unsubscribe(ctx, "device-b", "project-2"))
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, hub, srv, "device-a")

	conn.Close()

	assert.Eventually(t, func() bool { return !hub.Connected("device-a") }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ServeWS_RequiresToken(t *testing.T) {
	_, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}
