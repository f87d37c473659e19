package router

import (
	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/middleware"
)

// Setup registers the REST routes. The WebSocket, file and development
// routes are registered separately because they depend on optional wiring.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	SetupHealthRouter(e)
	SetupChatRouter(e, authMiddleware, rateLimit)
}
