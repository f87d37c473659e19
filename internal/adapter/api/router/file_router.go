package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"campuslink/internal/adapter/api/handler"
	"campuslink/internal/adapter/api/middleware"
)

// SetupFileRouter is a no-op when no attachment store is configured.
func SetupFileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, bodyLimit string) {
	fileHandler := handler.GetFileHandler()
	if fileHandler == nil {
		return
	}

	e.POST("/v1/chat/attachments", fileHandler.UploadAttachment, echomw.BodyLimit(bodyLimit), authMiddleware.Authenticate)
}
