package router

import (
	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/handler"
	"campuslink/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	roomHandler := handler.GetRoomHandler()
	messageHandler := handler.GetMessageHandler()

	chat := e.Group("/v1/chat")
	if rateLimit != nil {
		chat.Use(rateLimit)
	}
	chat.Use(authMiddleware.Authenticate)

	chat.POST("/rooms", roomHandler.CreateRoom)
	chat.GET("/rooms", roomHandler.ListRooms)
	chat.GET("/rooms/:id", roomHandler.GetRoom)
	chat.POST("/rooms/:id/participants", roomHandler.AddParticipant)

	chat.GET("/rooms/:id/messages", messageHandler.GetHistory)
	chat.POST("/rooms/:id/messages", messageHandler.SendMessage)
	chat.GET("/messages/unread", messageHandler.ListUnread)
	chat.POST("/messages/:id/read", messageHandler.MarkRead)
}
