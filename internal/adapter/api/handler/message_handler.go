package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/middleware"
	"campuslink/internal/usecase"
	"campuslink/pkg/errors"
	"campuslink/pkg/response"
	"campuslink/pkg/utils"
)

const defaultHistoryLimit = 50

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	Message    string  `json:"message" validate:"required"`
	Attachment *string `json:"attachment"`
}

// SendMessage is the REST twin of an inbound WebSocket frame. The stored
// message is also pushed to the room's live connections.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), middleware.IdentityFrom(c), usecase.SendMessageInput{
		RoomID:     c.Param("id"),
		Content:    req.Message,
		Attachment: req.Attachment,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetHistory pages forward with ?after_id=<last seen id>&limit=<n>.
func (h *MessageHandler) GetHistory(c echo.Context) error {
	cursor := utils.GetCursorParams(c, defaultHistoryLimit)

	messages, err := h.messageUseCase.History(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"), cursor.AfterID, cursor.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *MessageHandler) ListUnread(c echo.Context) error {
	messages, err := h.messageUseCase.ListUnread(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || messageID <= 0 {
		return response.Error(c, errors.BadRequest("Invalid message id", err))
	}

	message, err := h.messageUseCase.MarkRead(c.Request().Context(), middleware.IdentityFrom(c), messageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}
