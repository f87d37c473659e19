package repository

import (
	"context"

	"campuslink/internal/domain/entity"
)

// MessageRepository is the per-room append log.
type MessageRepository interface {
	// Append assigns ID and Timestamp atomically with the write. It fails
	// with NotFound when the room does not exist.
	Append(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id int64) (*entity.Message, error)
	ListByRoom(ctx context.Context, roomID string, afterID int64, limit int) ([]*entity.Message, error)
	// ListUnread returns unread messages in roomIDs not sent by excludeSender, ordered by ID.
	ListUnread(ctx context.Context, roomIDs []string, excludeSender string) ([]*entity.Message, error)
	MarkRead(ctx context.Context, id int64) error
}
