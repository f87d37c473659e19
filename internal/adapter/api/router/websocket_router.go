package router

import (
	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/handler"
	"campuslink/internal/adapter/api/middleware"
)

// SetupWebSocketRouter uses Identify rather than Authenticate: an
// unauthenticated socket must be upgraded and then closed like any other
// rejected connection.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/ws/chat/:roomId", wsHandler.HandleWebSocket, authMiddleware.Identify)
}
