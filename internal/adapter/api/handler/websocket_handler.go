package handler

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/middleware"
	ws "campuslink/internal/infrastructure/websocket"
	"campuslink/internal/usecase"
	"campuslink/pkg/logger"
)

type WebSocketHandler struct {
	connections  *usecase.ConnectionUseCase
	upgrader     gorillaws.Upgrader
	closeTimeout time.Duration
}

func NewWebSocketHandler(connections *usecase.ConnectionUseCase, closeTimeout time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		connections: connections,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		closeTimeout: closeTimeout,
	}
}

// HandleWebSocket serves /ws/chat/:roomId. Admission is decided after the
// upgrade so that every rejection looks identical on the wire.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Debug("WebSocket upgrade failed: %v", err)
		return nil
	}

	identity := middleware.IdentityFrom(c)
	roomID := c.Param("roomId")

	client, err := h.connections.Open(c.Request().Context(), identity, roomID, conn)
	if err != nil {
		logger.Debug("WebSocket connection to room %s rejected for %q: %v", roomID, identity.ID, err)
		ws.Reject(conn, h.closeTimeout)
		return nil
	}

	// Frames outlive the upgrade request; appends must not be cut short by it.
	ctx := context.WithoutCancel(c.Request().Context())

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.connections.HandleFrame(ctx, client, data)
	})
	h.connections.Close(client)
	return nil
}
