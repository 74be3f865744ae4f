package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/voicemail-store/internal/websocket"
)

func TestWebSocketHandler_MWI_DeliversUpdatesToSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws/mwi", NewWebSocketHandler(hub, websocket.DefaultUpgrader(), nil).MWI)
	server := httptest.NewServer(e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/mwi"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websocket.WSMessage{Type: websocket.MessageTypeSubscribe, MailboxID: 42}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ack websocket.WSMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, websocket.MessageTypeSubscribed, ack.Type)
	assert.Equal(t, uint(42), ack.MailboxID)

	require.Eventually(t, func() bool { return hub.Subscribers(42) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.PublishMWI(42, websocket.NewMWIPayload(3, 2)))

	var update websocket.WSMessage
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, websocket.MessageTypeMWI, update.Type)
	require.NotNil(t, update.MWI)
	assert.Equal(t, 3, update.MWI.Read)
	assert.Equal(t, 2, update.MWI.Unread)
	assert.True(t, update.MWI.Waiting)
}

func TestWebSocketHandler_MWI_RejectsPlainRequest(t *testing.T) {
	hub := websocket.NewHub(nil)

	e := echo.New()
	e.GET("/ws/mwi", NewWebSocketHandler(hub, websocket.DefaultUpgrader(), nil).MWI)

	req := httptest.NewRequest("GET", "/ws/mwi", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}
