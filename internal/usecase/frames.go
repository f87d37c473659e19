package usecase

import (
	"encoding/json"
	"time"

	"campuslink/internal/domain/entity"
	"campuslink/pkg/errors"
)

// InboundFrame is what a client sends over its room connection.
type InboundFrame struct {
	Message    string  `json:"message"`
	Attachment *string `json:"attachment"`
}

// OutboundFrame is pushed to every live connection of a room once a message
// has been persisted.
type OutboundFrame struct {
	MessageID  int64       `json:"message_id"`
	Message    string      `json:"message"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	SenderRole entity.Role `json:"sender_role"`
	Attachment *string     `json:"attachment"`
	Timestamp  string      `json:"timestamp"`
}

type ErrorFrame struct {
	Type  string    `json:"type"`
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewOutboundFrame(m *entity.Message, sender entity.Identity) OutboundFrame {
	return OutboundFrame{
		MessageID:  m.ID,
		Message:    m.Content,
		SenderID:   m.SenderID,
		SenderName: sender.DisplayName,
		SenderRole: sender.Role,
		Attachment: m.Attachment,
		Timestamp:  m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func encodeErrorFrame(err error) []byte {
	appErr := errors.As(err)
	data, _ := json.Marshal(ErrorFrame{
		Type:  "error",
		Error: ErrorBody{Code: appErr.Code, Message: appErr.Message},
	})
	return data
}
