package handler

import (
	"campuslink/internal/usecase"
)

var (
	roomHandler    *RoomHandler
	messageHandler *MessageHandler
)

func Setup(
	roomUseCase *usecase.RoomUseCase,
	messageUseCase *usecase.MessageUseCase,
) {
	roomHandler = NewRoomHandler(roomUseCase)
	messageHandler = NewMessageHandler(messageUseCase)
}

func GetRoomHandler() *RoomHandler {
	return roomHandler
}

func GetMessageHandler() *MessageHandler {
	return messageHandler
}
