package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "campuslink/internal/infrastructure/websocket"
)

type HealthHandler struct {
	hub *ws.Hub
}

var healthHandler *HealthHandler

func NewHealthHandler(hub *ws.Hub) *HealthHandler {
	return &HealthHandler{
		hub: hub,
	}
}

func SetupHealthHandler(hub *ws.Hub) {
	healthHandler = NewHealthHandler(hub)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"time":         time.Now().UTC().Format(time.RFC3339),
		"active_rooms": h.hub.ActiveRooms(),
	})
}
