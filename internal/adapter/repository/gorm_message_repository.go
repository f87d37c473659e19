package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/pkg/errors"
)

type gormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &gormMessageRepository{db: db}
}

// Append relies on the autoincrement key for ordering: the id is assigned
// inside the same transaction that checks the room and writes the row.
func (r *gormMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&roomModel{}).Where("id = ?", message.RoomID).Count(&count).Error; err != nil {
			return errors.Internal("Failed to get room", err)
		}
		if count == 0 {
			return errors.NotFound("Room", nil)
		}

		model := messageModel{
			RoomID:     message.RoomID,
			SenderID:   message.SenderID,
			Content:    message.Content,
			Attachment: message.Attachment,
			Timestamp:  time.Now().UTC(),
		}
		if err := tx.Create(&model).Error; err != nil {
			return errors.Internal("Failed to append message", err)
		}

		message.ID = model.ID
		message.Timestamp = model.Timestamp
		message.IsRead = false
		return nil
	})
}

func (r *gormMessageRepository) GetByID(ctx context.Context, id int64) (*entity.Message, error) {
	var model messageModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Message", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get message", err)
	}
	return model.toEntity(), nil
}

func (r *gormMessageRepository) ListByRoom(ctx context.Context, roomID string, afterID int64, limit int) ([]*entity.Message, error) {
	q := r.db.WithContext(ctx).Where("room_id = ? AND id > ?", roomID, afterID).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []messageModel
	if err := q.Find(&models).Error; err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}
	return toMessages(models), nil
}

func (r *gormMessageRepository) ListUnread(ctx context.Context, roomIDs []string, excludeSender string) ([]*entity.Message, error) {
	if len(roomIDs) == 0 {
		return []*entity.Message{}, nil
	}

	var models []messageModel
	err := r.db.WithContext(ctx).
		Where("room_id IN ? AND is_read = ? AND sender_id <> ?", roomIDs, false, excludeSender).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, errors.Internal("Failed to list unread messages", err)
	}
	return toMessages(models), nil
}

func (r *gormMessageRepository) MarkRead(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&messageModel{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return errors.Internal("Failed to mark message read", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Message", nil)
	}
	return nil
}

func toMessages(models []messageModel) []*entity.Message {
	messages := make([]*entity.Message, 0, len(models))
	for i := range models {
		messages = append(messages, models[i].toEntity())
	}
	return messages
}
