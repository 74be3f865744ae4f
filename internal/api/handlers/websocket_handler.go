package handlers

import (
	"log/slog"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/websocket"
)

// WebSocketHandler upgrades MWI watch connections
type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader gws.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, upgrader gws.Upgrader, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{hub: hub, upgrader: upgrader, logger: logger}
}

// MWI handles GET /ws/mwi. The request is served until the peer goes away.
func (h *WebSocketHandler) MWI(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied.
		h.logger.Debug("websocket upgrade failed", "remote_ip", c.RealIP(), "error", err)
		return nil
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
	return nil
}
